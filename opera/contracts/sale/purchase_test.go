package sale

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-opera-badge/inter"
	"github.com/rony4d/go-opera-badge/opera"
	"github.com/rony4d/go-opera-badge/opera/contracts/erc20"
	"github.com/rony4d/go-opera-badge/utils/merkle"
)

// openSale creates, activates and opens a single event, returning its id.
func openSale(t *testing.T, e *Engine, kind inter.SaleKind, maxTotal, maxPerWallet uint64, price int64) inter.SaleID {
	t.Helper()
	id, err := e.CreateSaleEvent(admin(), kind, maxTotal, maxPerWallet, big.NewInt(price))
	require.NoError(t, err)
	require.NoError(t, e.Activate(admin(), id))
	require.NoError(t, e.SetSaleActive(admin(), true))
	return id
}

func buy(e *Engine, buyer common.Address, kind inter.SaleKind, id inter.SaleID, count uint64, value int64) error {
	return e.Purchase(inter.DirectCall(buyer).WithValue(big.NewInt(value)), kind, id, count)
}

// TestPlainNativePurchase walks the canonical sale lifecycle: a capped
// native-priced event, a successful purchase, then the per-wallet cap.
func TestPlainNativePurchase(t *testing.T) {
	require := require.New(t)
	e, minter := newTestEngine(t)
	id := openSale(t, e, inter.PlainNative, 100, 2, 1)

	notices := make(chan PurchaseNotice, 1)
	sub := e.SubscribePurchases(notices)
	defer sub.Unsubscribe()

	require.NoError(buy(e, alice, inter.PlainNative, id, 2, 2))
	require.Equal(uint64(2), e.PurchasedBy(alice, id))
	ev, err := e.SaleEventOf(id)
	require.NoError(err)
	require.Equal(uint64(2), ev.CurrentTotalUnits)
	require.Equal(int64(2), e.CollectedNative().Int64())

	require.Len(minter.mints, 1)
	require.Equal(mintRecord{caller: engineAddr, to: alice, sale: id, count: 2}, minter.mints[0])

	n := <-notices
	require.Equal(alice, n.Buyer)
	require.Equal(uint64(2), n.Count)
	require.Equal(int64(2), n.Paid.Int64())

	// one more unit would pass the per-address cap
	require.Equal(ErrPerWalletLimitExceeded, buy(e, alice, inter.PlainNative, id, 1, 1))
	require.Equal(uint64(2), e.PurchasedBy(alice, id))
}

// TestInsufficientPaymentLeavesNoTrace verifies a failed payment check
// changes nothing: counters, totals and collected balance all keep their
// prior values.
func TestInsufficientPaymentLeavesNoTrace(t *testing.T) {
	require := require.New(t)
	e, minter := newTestEngine(t)
	id := openSale(t, e, inter.PlainNative, 100, 10, 1)

	require.Equal(ErrInsufficientPayment, buy(e, bob, inter.PlainNative, id, 2, 1))
	require.Equal(uint64(0), e.PurchasedBy(bob, id))
	ev, err := e.SaleEventOf(id)
	require.NoError(err)
	require.Equal(uint64(0), ev.CurrentTotalUnits)
	require.Equal(int64(0), e.CollectedNative().Int64())
	require.Empty(minter.mints)
}

// TestOverpaymentIsKept verifies a native purchase keeps the whole attached
// value, not just the required amount.
func TestOverpaymentIsKept(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)
	id := openSale(t, e, inter.PlainNative, 100, 10, 1)

	require.NoError(buy(e, alice, inter.PlainNative, id, 1, 5))
	require.Equal(int64(5), e.CollectedNative().Int64())
}

// TestValidationOrder provokes each failure reason in isolation and checks
// the first applicable reason wins when several would apply.
func TestValidationOrder(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)

	// suspended beats everything, even an unknown event
	require.Equal(ErrSaleSuspended, buy(e, alice, inter.PlainNative, 99, 0, 0))

	require.NoError(e.SetSaleActive(admin(), true))

	// not active beats unknown event
	require.Equal(ErrEventNotActive, buy(e, alice, inter.PlainNative, 99, 0, 0))

	// activated but never created
	require.NoError(e.Activate(admin(), 99))
	require.Equal(ErrUnknownSaleEvent, buy(e, alice, inter.PlainNative, 99, 0, 0))

	id, err := e.CreateSaleEvent(admin(), inter.PlainNative, 10, 5, big.NewInt(1))
	require.NoError(err)
	require.NoError(e.Activate(admin(), id))

	// zero quantity beats the payment check
	require.Equal(ErrInvalidQuantity, buy(e, alice, inter.PlainNative, id, 0, 0))

	// per-wallet cap beats payment: 6 > 5 with no value attached
	require.Equal(ErrPerWalletLimitExceeded, buy(e, alice, inter.PlainNative, id, 6, 0))

	// global cap beats payment once the wallet cap passes
	require.NoError(e.SetMaxUnitsPerWallet(admin(), id, 100))
	require.Equal(ErrGlobalLimitExceeded, buy(e, alice, inter.PlainNative, id, 11, 0))

	// entry-point family gate rejects out-of-family selectors up front
	require.Equal(ErrUnknownSaleKind, buy(e, alice, inter.MerkleNative, id, 1, 1))
	require.Equal(ErrUnknownSaleKind, buy(e, alice, inter.SaleKind(42), id, 1, 1))
	require.Equal(ErrUnknownSaleKind,
		e.PurchaseWithProof(inter.DirectCall(alice), inter.PlainNative, id, 1, nil))
}

// TestWhitelistPurchase covers the explicit-allowance lifecycle: grant,
// consume to zero, then exhaustion.
func TestWhitelistPurchase(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)
	id := openSale(t, e, inter.WhitelistNative, 100, 10, 0)

	require.NoError(e.AddWhitelist(admin(), alice, id, 3))

	require.NoError(buy(e, alice, inter.WhitelistNative, id, 3, 0))
	require.Equal(uint64(0), e.WhitelistOf(alice, id))
	require.Equal(uint64(3), e.PurchasedBy(alice, id))

	// allowance is spent, further purchases under the whitelist kind fail
	require.Equal(ErrWhitelistExceeded, buy(e, alice, inter.WhitelistNative, id, 1, 0))

	// an address never granted fails the same way
	require.Equal(ErrWhitelistExceeded, buy(e, bob, inter.WhitelistNative, id, 1, 0))

	// asking for more than the remaining grant fails without consuming it
	require.NoError(e.AddWhitelist(admin(), carol, id, 2))
	require.Equal(ErrWhitelistExceeded, buy(e, carol, inter.WhitelistNative, id, 3, 0))
	require.Equal(uint64(2), e.WhitelistOf(carol, id))
}

// TestKindSelectorIsCallerChosen verifies the branch taken is the caller's
// selector, not the stored event kind: a whitelist-configured event can be
// bought through the plain branch without any allowance.
func TestKindSelectorIsCallerChosen(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)
	id := openSale(t, e, inter.WhitelistNative, 100, 10, 0)

	require.NoError(buy(e, alice, inter.PlainNative, id, 1, 0))
	require.Equal(uint64(1), e.PurchasedBy(alice, id))
}

// TestMerklePurchase covers the anonymous allowlist: a valid proof admits
// the member, a non-member fails, and replacing the root invalidates every
// outstanding proof at once.
func TestMerklePurchase(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)
	id := openSale(t, e, inter.MerkleNative, 100, 10, 0)

	tree, err := merkle.NewTree([]common.Address{alice, bob})
	require.NoError(err)
	require.NoError(e.SetMerkleRoot(admin(), tree.Root()))

	proof, err := tree.Proof(alice)
	require.NoError(err)

	require.NoError(e.PurchaseWithProof(inter.DirectCall(alice), inter.MerkleNative, id, 1, proof))
	require.Equal(uint64(1), e.PurchasedBy(alice, id))

	// carol is not under the root
	carolProof := proof
	err = e.PurchaseWithProof(inter.DirectCall(carol), inter.MerkleNative, id, 1, carolProof)
	require.Equal(ErrInvalidProof, err)

	// the merkle path has no per-event allowance: repeat purchases ride the
	// same proof up to the per-wallet cap
	require.NoError(e.PurchaseWithProof(inter.DirectCall(alice), inter.MerkleNative, id, 2, proof))
	require.Equal(uint64(3), e.PurchasedBy(alice, id))

	// replacing the root strands the old proof immediately
	next, err := merkle.NewTree([]common.Address{carol})
	require.NoError(err)
	require.NoError(e.SetMerkleRoot(admin(), next.Root()))
	err = e.PurchaseWithProof(inter.DirectCall(alice), inter.MerkleNative, id, 1, proof)
	require.Equal(ErrInvalidProof, err)
}

// TestMerkleProofDepthLimit rejects proofs longer than the deployment limit
// before any hashing happens.
func TestMerkleProofDepthLimit(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)
	id := openSale(t, e, inter.MerkleNative, 100, 10, 0)

	depth := e.Rules().Limits.MaxMerkleProofDepth
	tooDeep := make([]common.Hash, depth+1)
	err := e.PurchaseWithProof(inter.DirectCall(alice), inter.MerkleNative, id, 1, tooDeep)
	require.Equal(ErrProofTooDeep, err)
}

// TestBotBlocking rejects proxied purchases (origin differs from caller)
// while the policy is on, and admits them once it is switched off.
func TestBotBlocking(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)
	require.NoError(e.SetBotBlock(admin(), true))
	id := openSale(t, e, inter.PlainNative, 100, 10, 0)

	proxied := inter.Call{Caller: alice, Origin: bob}
	require.Equal(ErrBotBlocked, e.Purchase(proxied, inter.PlainNative, id, 1))

	require.NoError(e.SetBotBlock(admin(), false))
	require.NoError(e.Purchase(proxied, inter.PlainNative, id, 1))
}

// TestTokenPayment covers the token-priced path: allowance gate, the exact
// allowance succeeding, and balance movement into the engine.
func TestTokenPayment(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)
	id := openSale(t, e, inter.PlainToken, 100, 10, 5)

	// no token configured yet
	require.Equal(ErrPaymentTokenUnset, buy(e, alice, inter.PlainToken, id, 1, 0))

	tok := erc20.New("Fantom USD", "FUSD", alice, big.NewInt(100), quietLogger())
	require.NoError(e.SetPaymentToken(admin(), tokenAddr, tok))

	// no approval at all
	require.Equal(ErrInsufficientAllowance, buy(e, alice, inter.PlainToken, id, 1, 0))

	// approval one short of the price
	require.NoError(tok.Approve(inter.DirectCall(alice), engineAddr, big.NewInt(9)))
	require.Equal(ErrInsufficientAllowance, buy(e, alice, inter.PlainToken, id, 2, 0))

	// the exact required amount is enough
	require.NoError(tok.Approve(inter.DirectCall(alice), engineAddr, big.NewInt(10)))
	require.NoError(buy(e, alice, inter.PlainToken, id, 2, 0))
	require.Equal(int64(10), tok.BalanceOf(engineAddr).Int64())
	require.Equal(int64(90), tok.BalanceOf(alice).Int64())
	require.Equal(int64(0), tok.Allowance(alice, engineAddr).Int64())

	// token purchases never touch the native balance
	require.Equal(int64(0), e.CollectedNative().Int64())
}

// TestMintFailureUnwinds verifies the all-or-nothing unwind when the issuer
// rejects the mint: counters, whitelist allowance, the event total and the
// token payment are all restored.
func TestMintFailureUnwinds(t *testing.T) {
	require := require.New(t)
	e, minter := newTestEngine(t)
	id := openSale(t, e, inter.WhitelistToken, 100, 10, 5)

	tok := erc20.New("Fantom USD", "FUSD", alice, big.NewInt(100), quietLogger())
	require.NoError(e.SetPaymentToken(admin(), tokenAddr, tok))
	require.NoError(e.AddWhitelist(admin(), alice, id, 3))
	require.NoError(tok.Approve(inter.DirectCall(alice), engineAddr, big.NewInt(100)))

	boom := errors.New("issuer refused")
	minter.fail = boom

	err := buy(e, alice, inter.WhitelistToken, id, 2, 0)
	require.Equal(boom, err)

	require.Equal(uint64(0), e.PurchasedBy(alice, id))
	require.Equal(uint64(3), e.WhitelistOf(alice, id))
	ev, evErr := e.SaleEventOf(id)
	require.NoError(evErr)
	require.Equal(uint64(0), ev.CurrentTotalUnits)
	require.Equal(int64(100), tok.BalanceOf(alice).Int64())
	require.Equal(int64(0), tok.BalanceOf(engineAddr).Int64())

	// once the issuer recovers the same purchase goes through
	minter.fail = nil
	require.NoError(buy(e, alice, inter.WhitelistToken, id, 2, 0))
	require.Equal(uint64(2), e.PurchasedBy(alice, id))
	require.Equal(uint64(1), e.WhitelistOf(alice, id))
}

// TestIssuerUnset rejects purchases while no badge contract is linked.
func TestIssuerUnset(t *testing.T) {
	require := require.New(t)
	e := New(engineAddr, deployer, opera.FakeNetRules(), quietLogger())
	id, err := e.CreateSaleEvent(admin(), inter.PlainNative, 100, 10, big.NewInt(0))
	require.NoError(err)
	require.NoError(e.Activate(admin(), id))
	require.NoError(e.SetSaleActive(admin(), true))

	require.Equal(ErrIssuerUnset, buy(e, alice, inter.PlainNative, id, 1, 0))
}
