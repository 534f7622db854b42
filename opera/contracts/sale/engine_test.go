package sale

import (
	"io/ioutil"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-opera-badge/inter"
	"github.com/rony4d/go-opera-badge/opera"
	"github.com/rony4d/go-opera-badge/opera/contracts/erc20"
)

var (
	engineAddr = common.HexToAddress("0xe000000000000000000000000000000000000001")
	tokenAddr  = common.HexToAddress("0xf000000000000000000000000000000000000001")
	badgeAddr  = common.HexToAddress("0xb000000000000000000000000000000000000001")
	deployer   = common.HexToAddress("0xd000000000000000000000000000000000000001")
	alice      = common.HexToAddress("0xa000000000000000000000000000000000000001")
	bob        = common.HexToAddress("0xa000000000000000000000000000000000000002")
	carol      = common.HexToAddress("0xa000000000000000000000000000000000000003")
)

func quietLogger() *logrus.Logger {
	lg := logrus.New()
	lg.SetOutput(ioutil.Discard)
	return lg
}

// recordingMinter counts the mints the engine triggers and can be told to
// fail, to exercise the all-or-nothing unwind.
type recordingMinter struct {
	mints []mintRecord
	fail  error
}

type mintRecord struct {
	caller common.Address
	to     common.Address
	sale   inter.SaleID
	count  uint64
}

func (m *recordingMinter) Mint(call inter.Call, to common.Address, sale inter.SaleID, count uint64) error {
	if m.fail != nil {
		return m.fail
	}
	m.mints = append(m.mints, mintRecord{caller: call.Caller, to: to, sale: sale, count: count})
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *recordingMinter) {
	t.Helper()
	e := New(engineAddr, deployer, opera.FakeNetRules(), quietLogger())
	minter := &recordingMinter{}
	require.NoError(t, e.SetBadgeContract(inter.DirectCall(deployer), badgeAddr, minter))
	return e, minter
}

func admin() inter.Call { return inter.DirectCall(deployer) }

// TestCreateSaleEvent verifies identifier assignment, the creation notice
// and the rejection of unrecognized kinds.
func TestCreateSaleEvent(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)

	notices := make(chan SaleCreatedNotice, 2)
	sub := e.SubscribeSaleCreated(notices)
	defer sub.Unsubscribe()

	id0, err := e.CreateSaleEvent(admin(), inter.PlainNative, 100, 2, big.NewInt(1))
	require.NoError(err)
	require.Equal(inter.SaleID(0), id0)

	id1, err := e.CreateSaleEvent(admin(), inter.MerkleToken, 50, 1, big.NewInt(5))
	require.NoError(err)
	require.Equal(inter.SaleID(1), id1)
	require.Equal(2, e.CatalogLen())

	n := <-notices
	require.Equal(SaleCreatedNotice{Sale: 0, Kind: inter.PlainNative, MaxTotal: 100, MaxPerWallet: 2, UnitPrice: big.NewInt(1)}, n)

	// non-owner cannot create
	_, err = e.CreateSaleEvent(inter.DirectCall(alice), inter.PlainNative, 1, 1, big.NewInt(1))
	require.Equal(ErrUnauthorized, err)

	// unrecognized kind rejected
	_, err = e.CreateSaleEvent(admin(), inter.SaleKind(9), 1, 1, big.NewInt(1))
	require.Equal(ErrUnknownSaleKind, err)

	ev, err := e.SaleEventOf(0)
	require.NoError(err)
	require.Equal(uint64(0), ev.CurrentTotalUnits)
}

// TestFieldSetters verifies the unchecked admin overwrites, including moving
// a cap below the sold counter (silently freezing the event).
func TestFieldSetters(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)

	id, err := e.CreateSaleEvent(admin(), inter.PlainNative, 10, 10, big.NewInt(0))
	require.NoError(err)
	require.NoError(e.Activate(admin(), id))
	require.NoError(e.SetSaleActive(admin(), true))

	require.NoError(e.Purchase(inter.DirectCall(alice), inter.PlainNative, id, 4))

	// cap moved below the counter: no error, further sales frozen
	require.NoError(e.SetMaxTotalUnits(admin(), id, 3))
	err = e.Purchase(inter.DirectCall(bob), inter.PlainNative, id, 1)
	require.Equal(ErrGlobalLimitExceeded, err)

	// unknown ids rejected by setters
	require.Equal(ErrUnknownSaleEvent, e.SetMaxTotalUnits(admin(), 7, 1))
	require.Equal(ErrUnknownSaleEvent, e.SetMaxUnitsPerWallet(admin(), 7, 1))
	require.Equal(ErrUnknownSaleEvent, e.SetUnitPrice(admin(), 7, big.NewInt(1)))

	// price overwrite detaches from the caller's big.Int
	p := big.NewInt(100)
	require.NoError(e.SetUnitPrice(admin(), id, p))
	p.SetInt64(0)
	ev, err := e.SaleEventOf(id)
	require.NoError(err)
	require.Equal(int64(100), ev.UnitPrice.Int64())
}

// TestActiveSetSemantics covers the positional active set: unconditional
// activation (duplicates, nonexistent ids), positional deactivation with
// silent out-of-range no-op, and the find-position helper.
func TestActiveSetSemantics(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)

	// activation does not check the catalog
	require.NoError(e.Activate(admin(), 5))
	require.True(e.IsActive(5))

	// duplicates accumulate
	require.NoError(e.Activate(admin(), 5))
	require.Equal([]inter.SaleID{5, 5}, e.ActiveSet())

	// out-of-range deactivation is a silent no-op
	require.NoError(e.DeactivateAt(admin(), 2))
	require.NoError(e.DeactivateAt(admin(), -1))
	require.Equal([]inter.SaleID{5, 5}, e.ActiveSet())

	// removing one occurrence leaves the duplicate: still active
	pos := e.FindActivePosition(5)
	require.Equal(0, pos)
	require.NoError(e.DeactivateAt(admin(), pos))
	require.True(e.IsActive(5))
	require.Equal([]inter.SaleID{5}, e.ActiveSet())

	// removing the second occurrence fully deactivates
	require.NoError(e.DeactivateAt(admin(), e.FindActivePosition(5)))
	require.False(e.IsActive(5))
	require.Equal(-1, e.FindActivePosition(5))

	// positional shift: removing the middle entry shifts later ones left
	for _, id := range []inter.SaleID{1, 2, 3} {
		require.NoError(e.Activate(admin(), id))
	}
	require.NoError(e.DeactivateAt(admin(), 1))
	require.Equal([]inter.SaleID{1, 3}, e.ActiveSet())

	// admin gating
	require.Equal(ErrUnauthorized, e.Activate(inter.DirectCall(alice), 1))
	require.Equal(ErrUnauthorized, e.DeactivateAt(inter.DirectCall(alice), 0))
}

// TestWhitelistAdmin covers single and batch grants, accumulation, batch
// validation and the deployment bound.
func TestWhitelistAdmin(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)

	require.NoError(e.AddWhitelist(admin(), alice, 0, 2))
	require.NoError(e.AddWhitelist(admin(), alice, 0, 1))
	require.Equal(uint64(3), e.WhitelistOf(alice, 0))
	require.Equal(uint64(0), e.WhitelistOf(bob, 0))

	require.Equal(ErrLengthMismatch,
		e.AddWhitelistBatch(admin(), []common.Address{alice, bob}, 0, []uint64{1}))

	require.NoError(e.AddWhitelistBatch(admin(), []common.Address{alice, bob}, 1, []uint64{4, 5}))
	require.Equal(uint64(4), e.WhitelistOf(alice, 1))
	require.Equal(uint64(5), e.WhitelistOf(bob, 1))

	limit := opera.FakeNetRules().Limits.MaxWhitelistBatch
	tooMany := make([]common.Address, limit+1)
	counts := make([]uint64, limit+1)
	require.Equal(ErrBatchTooLarge, e.AddWhitelistBatch(admin(), tooMany, 0, counts))

	require.Equal(ErrUnauthorized, e.AddWhitelist(inter.DirectCall(alice), alice, 0, 1))
}

// TestWithdrawNative verifies native withdrawal: owner gating, the zeroing
// of the collected balance and the notification.
func TestWithdrawNative(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)

	id, err := e.CreateSaleEvent(admin(), inter.PlainNative, 100, 10, big.NewInt(3))
	require.NoError(err)
	require.NoError(e.Activate(admin(), id))
	require.NoError(e.SetSaleActive(admin(), true))

	call := inter.DirectCall(alice).WithValue(big.NewInt(6))
	require.NoError(e.Purchase(call, inter.PlainNative, id, 2))
	require.Equal(int64(6), e.CollectedNative().Int64())

	notices := make(chan NativeWithdrawalNotice, 1)
	sub := e.SubscribeNativeWithdrawals(notices)
	defer sub.Unsubscribe()

	_, err = e.WithdrawNative(inter.DirectCall(alice), alice)
	require.Equal(ErrUnauthorized, err)

	amount, err := e.WithdrawNative(admin(), deployer)
	require.NoError(err)
	require.Equal(int64(6), amount.Int64())
	require.Equal(int64(0), e.CollectedNative().Int64())

	n := <-notices
	require.Equal(deployer, n.To)
	require.Equal(int64(6), n.Amount.Int64())

	_, err = e.WithdrawNative(admin(), deployer)
	require.Equal(ErrNothingToWithdraw, err)
}

// TestWithdrawToken verifies fungible-token withdrawal from the engine's
// collected balance.
func TestWithdrawToken(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)

	tok := erc20.New("Fantom USD", "FUSD", alice, big.NewInt(1000), quietLogger())
	require.NoError(e.SetPaymentToken(admin(), tokenAddr, tok))

	id, err := e.CreateSaleEvent(admin(), inter.PlainToken, 100, 10, big.NewInt(5))
	require.NoError(err)
	require.NoError(e.Activate(admin(), id))
	require.NoError(e.SetSaleActive(admin(), true))

	require.NoError(tok.Approve(inter.DirectCall(alice), engineAddr, big.NewInt(10)))
	require.NoError(e.Purchase(inter.DirectCall(alice), inter.PlainToken, id, 2))
	require.Equal(int64(10), tok.BalanceOf(engineAddr).Int64())

	notices := make(chan TokenWithdrawalNotice, 1)
	sub := e.SubscribeTokenWithdrawals(notices)
	defer sub.Unsubscribe()

	amount, err := e.WithdrawToken(admin(), deployer)
	require.NoError(err)
	require.Equal(int64(10), amount.Int64())
	require.Equal(int64(10), tok.BalanceOf(deployer).Int64())
	require.Equal(int64(0), tok.BalanceOf(engineAddr).Int64())

	n := <-notices
	require.Equal(deployer, n.To)

	_, err = e.WithdrawToken(admin(), deployer)
	require.Equal(ErrNothingToWithdraw, err)
}

// TestOwnershipTransfer verifies the owner capability moves atomically.
func TestOwnershipTransfer(t *testing.T) {
	require := require.New(t)
	e, _ := newTestEngine(t)

	require.Equal(ErrUnauthorized, e.TransferOwnership(inter.DirectCall(alice), alice))
	require.NoError(e.TransferOwnership(admin(), alice))
	require.Equal(alice, e.Owner())

	require.Equal(ErrUnauthorized, e.SetSaleActive(admin(), true))
	require.NoError(e.SetSaleActive(inter.DirectCall(alice), true))
}
