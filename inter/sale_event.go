package inter

import (
	"encoding/json"
	"math/big"
)

// SaleEvent is one configured sale campaign in the catalog.
//
// The record is created by an administrative action with CurrentTotalUnits=0
// and is never deleted: deactivation removes the event from the active set
// but its history and counters persist. Admin setters overwrite the limit
// fields directly, with no bounds checking against CurrentTotalUnits — a max
// set below the current count silently freezes further sales under the event.
type SaleEvent struct {
	// Kind selects the payment/eligibility mode configured for the event.
	Kind SaleKind

	// MaxTotalUnits caps the cumulative units sold under this event.
	MaxTotalUnits uint64

	// MaxUnitsPerWallet caps the cumulative units any single address may
	// buy under this event.
	MaxUnitsPerWallet uint64

	// UnitPrice is the price of one unit, in wei (18-decimals fungible-token
	// convention).
	UnitPrice *big.Int

	// CurrentTotalUnits is the cumulative units sold so far. It increases
	// monotonically and only through successful purchases.
	// Invariant: CurrentTotalUnits <= MaxTotalUnits after every successful
	// purchase.
	CurrentTotalUnits uint64
}

// NewSaleEvent builds a fresh sale event record with a zero counter.
// The price is deep-copied.
func NewSaleEvent(kind SaleKind, maxTotal uint64, maxPerWallet uint64, price *big.Int) SaleEvent {
	return SaleEvent{
		Kind:              kind,
		MaxTotalUnits:     maxTotal,
		MaxUnitsPerWallet: maxPerWallet,
		UnitPrice:         new(big.Int).Set(price),
	}
}

// Copy creates a deep copy of the event. UnitPrice is a *big.Int and would
// otherwise be shared by a plain struct assignment.
func (e SaleEvent) Copy() SaleEvent {
	cp := e
	if e.UnitPrice != nil {
		cp.UnitPrice = new(big.Int).Set(e.UnitPrice)
	}
	return cp
}

// Remaining returns how many units are still sellable under the event's
// global cap. Returns 0 if the cap was moved below the current counter.
func (e SaleEvent) Remaining() uint64 {
	if e.CurrentTotalUnits >= e.MaxTotalUnits {
		return 0
	}
	return e.MaxTotalUnits - e.CurrentTotalUnits
}

// String returns a JSON representation for debugging and logging.
func (e SaleEvent) String() string {
	b, _ := json.Marshal(&e)
	return string(b)
}
