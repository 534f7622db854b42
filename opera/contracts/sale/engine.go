// Package sale implements the sale-engine contract: the catalog of sale
// events, the positional active set, per-address purchase and whitelist
// counters, the global toggles, payment collection and the purchase
// eligibility machine. On a successful purchase the engine calls the badge
// contract's trusted mint entry point.
//
// Execution is single-threaded and atomic per call (the host serializes
// operations), so the engine holds no locks: every mutable field is owned
// by the engine and mutated only inside the call that validated it.
package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-opera-badge/inter"
	"github.com/rony4d/go-opera-badge/opera"
	"github.com/rony4d/go-opera-badge/opera/contracts/erc20"
)

// Minter is the badge contract capability the engine needs: mint count
// units to an address, tagged with the sale event that sold them.
type Minter interface {
	Mint(call inter.Call, to common.Address, sale inter.SaleID, count uint64) error
}

// SaleCreatedNotice is published when an administrative action appends a
// new sale event to the catalog.
type SaleCreatedNotice struct {
	Sale         inter.SaleID
	Kind         inter.SaleKind
	MaxTotal     uint64
	MaxPerWallet uint64
	UnitPrice    *big.Int
}

// PurchaseNotice is published after every successful purchase.
type PurchaseNotice struct {
	Buyer common.Address
	Sale  inter.SaleID
	Count uint64
	Paid  *big.Int
}

// NativeWithdrawalNotice is published when collected native currency is
// withdrawn to an address.
type NativeWithdrawalNotice struct {
	To     common.Address
	Amount *big.Int
}

// TokenWithdrawalNotice is published when collected fungible tokens are
// withdrawn to an address.
type TokenWithdrawalNotice struct {
	To     common.Address
	Amount *big.Int
}

// Engine is the sale-engine contract state.
type Engine struct {
	addr  common.Address
	owner common.Address

	// catalog is append-only; a sale event's index is its permanent id.
	catalog []inter.SaleEvent

	// active is the positional active set. An id may appear more than once
	// (activation never checks for duplicates) and membership, not catalog
	// presence, is what gates purchasing. Deactivation is positional.
	active []inter.SaleID

	// purchased maps buyer -> sale id -> cumulative units bought.
	// Monotonically increasing, never reset.
	purchased map[common.Address]map[inter.SaleID]uint64

	// whitelist maps address -> sale id -> remaining explicit allowance.
	whitelist map[common.Address]map[inter.SaleID]uint64

	// merkleRoot is the current anonymous-allowlist commitment. Replacing
	// it invalidates every proof issued against the previous root.
	merkleRoot common.Hash

	saleActive bool
	botBlock   bool

	// collectedNative is the engine's native-currency balance accumulated
	// from native-priced purchases.
	collectedNative *big.Int

	// Cross-contract trust links, each an independently configurable
	// reference validated on every privileged cross-call.
	issuer     Minter
	issuerAddr common.Address
	payToken   *erc20.Token
	payAddr    common.Address

	rules opera.Rules

	createdFeed        event.Feed
	purchaseFeed       event.Feed
	nativeWithdrawFeed event.Feed
	tokenWithdrawFeed  event.Feed

	log *logrus.Entry
}

// New deploys a sale engine at the given address with the given owner.
// The global sale starts suspended; bot blocking starts at the deployment
// rule default. Trust links (issuer, payment token) start unset.
func New(addr, owner common.Address, rules opera.Rules, lg *logrus.Logger) *Engine {
	return &Engine{
		addr:            addr,
		owner:           owner,
		purchased:       make(map[common.Address]map[inter.SaleID]uint64),
		whitelist:       make(map[common.Address]map[inter.SaleID]uint64),
		collectedNative: new(big.Int),
		botBlock:        rules.BotBlockDefault,
		rules:           rules,
		log:             lg.WithField("contract", "sale").WithField("address", addr.Hex()),
	}
}

// Address returns the engine's own address.
func (e *Engine) Address() common.Address { return e.addr }

// Owner returns the current owner identity.
func (e *Engine) Owner() common.Address { return e.owner }

// Rules returns the deployment rules the engine enforces.
func (e *Engine) Rules() opera.Rules { return e.rules.Copy() }

func (e *Engine) requireOwner(call inter.Call) error {
	if call.Caller != e.owner {
		return ErrUnauthorized
	}
	return nil
}

// TransferOwnership hands the owner capability to a new address.
func (e *Engine) TransferOwnership(call inter.Call, newOwner common.Address) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	e.owner = newOwner
	e.log.WithField("owner", newOwner.Hex()).Info("ownership transferred")
	return nil
}

// ----------------------------------------------------------------------------
// Catalog management
// ----------------------------------------------------------------------------

// CreateSaleEvent appends a new sale event with a zero counter and returns
// its permanent identifier (the catalog index). Unrecognized kinds are
// rejected.
func (e *Engine) CreateSaleEvent(call inter.Call, kind inter.SaleKind, maxTotal, maxPerWallet uint64, price *big.Int) (inter.SaleID, error) {
	if err := e.requireOwner(call); err != nil {
		return 0, err
	}
	if !kind.Valid() {
		return 0, ErrUnknownSaleKind
	}

	id := inter.SaleID(len(e.catalog))
	e.catalog = append(e.catalog, inter.NewSaleEvent(kind, maxTotal, maxPerWallet, price))

	e.log.WithFields(logrus.Fields{
		"sale":         id,
		"kind":         kind.String(),
		"maxTotal":     maxTotal,
		"maxPerWallet": maxPerWallet,
		"price":        price.String(),
	}).Info("sale event created")

	e.createdFeed.Send(SaleCreatedNotice{
		Sale:         id,
		Kind:         kind,
		MaxTotal:     maxTotal,
		MaxPerWallet: maxPerWallet,
		UnitPrice:    new(big.Int).Set(price),
	})
	return id, nil
}

// CatalogLen returns the number of events ever created.
func (e *Engine) CatalogLen() int { return len(e.catalog) }

// SaleEventOf returns a copy of a catalog entry.
func (e *Engine) SaleEventOf(id inter.SaleID) (inter.SaleEvent, error) {
	if int(id) >= len(e.catalog) {
		return inter.SaleEvent{}, ErrUnknownSaleEvent
	}
	return e.catalog[id].Copy(), nil
}

// SetMaxTotalUnits overwrites an event's total cap. The new value is not
// checked against the current counter: setting it below CurrentTotalUnits
// silently freezes further sales under the event.
func (e *Engine) SetMaxTotalUnits(call inter.Call, id inter.SaleID, value uint64) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	if int(id) >= len(e.catalog) {
		return ErrUnknownSaleEvent
	}
	e.catalog[id].MaxTotalUnits = value
	e.log.WithFields(logrus.Fields{"sale": id, "maxTotal": value}).Info("max total units updated")
	return nil
}

// SetMaxUnitsPerWallet overwrites an event's per-address cap.
func (e *Engine) SetMaxUnitsPerWallet(call inter.Call, id inter.SaleID, value uint64) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	if int(id) >= len(e.catalog) {
		return ErrUnknownSaleEvent
	}
	e.catalog[id].MaxUnitsPerWallet = value
	e.log.WithFields(logrus.Fields{"sale": id, "maxPerWallet": value}).Info("per-wallet cap updated")
	return nil
}

// SetUnitPrice overwrites an event's unit price.
func (e *Engine) SetUnitPrice(call inter.Call, id inter.SaleID, price *big.Int) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	if int(id) >= len(e.catalog) {
		return ErrUnknownSaleEvent
	}
	e.catalog[id].UnitPrice = new(big.Int).Set(price)
	e.log.WithFields(logrus.Fields{"sale": id, "price": price.String()}).Info("unit price updated")
	return nil
}

// ----------------------------------------------------------------------------
// Active set
// ----------------------------------------------------------------------------

// Activate appends the identifier to the active set unconditionally: no
// duplicate check and no existence check against the catalog. Activating an
// id twice leaves two entries, and purchasing under an activated id that
// has no catalog entry fails at purchase time.
func (e *Engine) Activate(call inter.Call, id inter.SaleID) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	e.active = append(e.active, id)
	e.log.WithFields(logrus.Fields{"sale": id, "activeLen": len(e.active)}).Info("sale activated")
	return nil
}

// DeactivateAt removes the entry at the given position of the active set,
// shifting later entries left. It operates on the position within the
// active-set sequence, NOT on the event identifier: callers must resolve
// the position first (see FindActivePosition). Out-of-range positions are
// a silent no-op.
func (e *Engine) DeactivateAt(call inter.Call, position int) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	if position < 0 || position >= len(e.active) {
		return nil
	}
	removed := e.active[position]
	e.active = append(e.active[:position], e.active[position+1:]...)
	e.log.WithFields(logrus.Fields{"sale": removed, "position": position}).Info("sale deactivated")
	return nil
}

// FindActivePosition returns the first position holding the identifier in
// the active set, or -1 when the identifier is not active. With duplicate
// activations only the first occurrence is reported; one deactivation then
// leaves the duplicate in place.
func (e *Engine) FindActivePosition(id inter.SaleID) int {
	for i, v := range e.active {
		if v == id {
			return i
		}
	}
	return -1
}

// IsActive reports whether any active-set entry equals the identifier.
func (e *Engine) IsActive(id inter.SaleID) bool {
	return e.FindActivePosition(id) >= 0
}

// ActiveSet returns a copy of the active-set sequence.
func (e *Engine) ActiveSet() []inter.SaleID {
	out := make([]inter.SaleID, len(e.active))
	copy(out, e.active)
	return out
}

// ----------------------------------------------------------------------------
// Toggles, whitelist, merkle root
// ----------------------------------------------------------------------------

// SetSaleActive flips the global kill-switch gating all purchases.
func (e *Engine) SetSaleActive(call inter.Call, active bool) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	e.saleActive = active
	e.log.WithField("active", active).Info("global sale toggled")
	return nil
}

// SaleActive returns the global kill-switch state.
func (e *Engine) SaleActive() bool { return e.saleActive }

// SetBotBlock flips the bot-blocking policy. While on, purchases whose
// origin differs from the immediate caller are rejected.
func (e *Engine) SetBotBlock(call inter.Call, enabled bool) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	e.botBlock = enabled
	e.log.WithField("enabled", enabled).Info("bot blocking toggled")
	return nil
}

// BotBlock returns the bot-blocking policy state.
func (e *Engine) BotBlock() bool { return e.botBlock }

// SetMerkleRoot replaces the anonymous-allowlist commitment. All proofs
// issued against the previous root become invalid immediately.
func (e *Engine) SetMerkleRoot(call inter.Call, root common.Hash) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	e.merkleRoot = root
	e.log.WithField("root", root.Hex()).Info("merkle root replaced")
	return nil
}

// MerkleRoot returns the current allowlist commitment.
func (e *Engine) MerkleRoot() common.Hash { return e.merkleRoot }

// AddWhitelist grants additional explicit whitelist allowance to an address
// under a sale event. Grants accumulate.
func (e *Engine) AddWhitelist(call inter.Call, addr common.Address, id inter.SaleID, count uint64) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	e.addWhitelist(addr, id, count)
	e.log.WithFields(logrus.Fields{
		"address": addr.Hex(),
		"sale":    id,
		"count":   count,
	}).Info("whitelist allowance granted")
	return nil
}

// AddWhitelistBatch grants paired allowances in one call. Lengths are
// validated explicitly and the batch is bounded by the deployment rules.
func (e *Engine) AddWhitelistBatch(call inter.Call, addrs []common.Address, id inter.SaleID, counts []uint64) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	if len(addrs) != len(counts) {
		return ErrLengthMismatch
	}
	if len(addrs) > e.rules.Limits.MaxWhitelistBatch {
		return ErrBatchTooLarge
	}
	for i, addr := range addrs {
		e.addWhitelist(addr, id, counts[i])
	}
	e.log.WithFields(logrus.Fields{"sale": id, "entries": len(addrs)}).Info("whitelist batch granted")
	return nil
}

func (e *Engine) addWhitelist(addr common.Address, id inter.SaleID, count uint64) {
	m, ok := e.whitelist[addr]
	if !ok {
		m = make(map[inter.SaleID]uint64)
		e.whitelist[addr] = m
	}
	m[id] += count
}

// WhitelistOf returns the remaining explicit allowance of an address under
// a sale event.
func (e *Engine) WhitelistOf(addr common.Address, id inter.SaleID) uint64 {
	return e.whitelist[addr][id]
}

// PurchasedBy returns the cumulative units an address has bought under a
// sale event.
func (e *Engine) PurchasedBy(addr common.Address, id inter.SaleID) uint64 {
	return e.purchased[addr][id]
}

// ----------------------------------------------------------------------------
// Trust links
// ----------------------------------------------------------------------------

// SetBadgeContract configures the badge issuer the engine mints into: the
// capability reference and the address the issuer is deployed at. This is
// the engine's half of the cross-contract handshake; the issuer must in
// turn register this engine's address as its trusted minter.
func (e *Engine) SetBadgeContract(call inter.Call, addr common.Address, minter Minter) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	e.issuerAddr = addr
	e.issuer = minter
	e.log.WithField("issuer", addr.Hex()).Info("badge contract configured")
	return nil
}

// IssuerAddress returns the configured badge contract address.
func (e *Engine) IssuerAddress() common.Address { return e.issuerAddr }

// SetPaymentToken configures the fungible token used by token-priced kinds.
func (e *Engine) SetPaymentToken(call inter.Call, addr common.Address, token *erc20.Token) error {
	if err := e.requireOwner(call); err != nil {
		return err
	}
	e.payAddr = addr
	e.payToken = token
	e.log.WithField("token", addr.Hex()).Info("payment token configured")
	return nil
}

// PaymentTokenAddress returns the configured payment token address.
func (e *Engine) PaymentTokenAddress() common.Address { return e.payAddr }

// ----------------------------------------------------------------------------
// Withdrawals
// ----------------------------------------------------------------------------

// CollectedNative returns the engine's accumulated native balance.
func (e *Engine) CollectedNative() *big.Int { return new(big.Int).Set(e.collectedNative) }

// WithdrawNative sends the whole collected native balance to an address.
// The host ledger performs the actual value transfer; the engine zeroes its
// balance and publishes the withdrawal notice it acts on.
func (e *Engine) WithdrawNative(call inter.Call, to common.Address) (*big.Int, error) {
	if err := e.requireOwner(call); err != nil {
		return nil, err
	}
	if e.collectedNative.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	amount := e.collectedNative
	e.collectedNative = new(big.Int)

	e.log.WithFields(logrus.Fields{"to": to.Hex(), "amount": amount.String()}).Info("native withdrawal")
	e.nativeWithdrawFeed.Send(NativeWithdrawalNotice{To: to, Amount: new(big.Int).Set(amount)})
	return amount, nil
}

// WithdrawToken transfers the engine's whole fungible-token balance to an
// address.
func (e *Engine) WithdrawToken(call inter.Call, to common.Address) (*big.Int, error) {
	if err := e.requireOwner(call); err != nil {
		return nil, err
	}
	if e.payToken == nil {
		return nil, ErrPaymentTokenUnset
	}
	amount := e.payToken.BalanceOf(e.addr)
	if amount.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	if err := e.payToken.Transfer(call.Internal(e.addr), to, amount); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{"to": to.Hex(), "amount": amount.String()}).Info("token withdrawal")
	e.tokenWithdrawFeed.Send(TokenWithdrawalNotice{To: to, Amount: new(big.Int).Set(amount)})
	return amount, nil
}

// ----------------------------------------------------------------------------
// Notifications
// ----------------------------------------------------------------------------

// SubscribeSaleCreated subscribes to catalog-creation notifications.
func (e *Engine) SubscribeSaleCreated(ch chan<- SaleCreatedNotice) event.Subscription {
	return e.createdFeed.Subscribe(ch)
}

// SubscribePurchases subscribes to successful-purchase notifications.
func (e *Engine) SubscribePurchases(ch chan<- PurchaseNotice) event.Subscription {
	return e.purchaseFeed.Subscribe(ch)
}

// SubscribeNativeWithdrawals subscribes to native withdrawal notifications.
func (e *Engine) SubscribeNativeWithdrawals(ch chan<- NativeWithdrawalNotice) event.Subscription {
	return e.nativeWithdrawFeed.Subscribe(ch)
}

// SubscribeTokenWithdrawals subscribes to token withdrawal notifications.
func (e *Engine) SubscribeTokenWithdrawals(ch chan<- TokenWithdrawalNotice) event.Subscription {
	return e.tokenWithdrawFeed.Subscribe(ch)
}
