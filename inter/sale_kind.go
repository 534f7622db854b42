// Package inter holds the core domain types shared across the badge sale
// system: the host call envelope, sale-kind enumeration and the sale event
// record. These types have no behavior of their own beyond classification
// and copying; all state transitions live in the contract packages.
package inter

import "fmt"

// SaleID is the permanent identifier of a sale event: its index in the
// append-only catalog, assigned at creation and never reused.
type SaleID uint32

// SaleKind enumerates the configured payment/eligibility modes of a sale
// event. The numeric values are part of the external interface (they are
// the selector values callers pass to the purchase entry points) and must
// not be reordered.
type SaleKind uint8

const (
	// PlainNative: open sale paid in native currency.
	PlainNative SaleKind = iota
	// PlainToken: open sale paid in the configured fungible token.
	PlainToken
	// WhitelistNative: explicit per-address allowance, paid in native currency.
	WhitelistNative
	// WhitelistToken: explicit per-address allowance, paid in the fungible token.
	WhitelistToken
	// MerkleNative: anonymous allowlist (Merkle proof), paid in native currency.
	MerkleNative
	// MerkleToken: anonymous allowlist (Merkle proof), paid in the fungible token.
	MerkleToken

	maxSaleKind = MerkleToken
)

// Valid reports whether the kind is one of the recognized enumeration values.
func (k SaleKind) Valid() bool {
	return k <= maxSaleKind
}

// IsTokenPayment reports whether payment is pulled from the fungible token
// rather than taken from the call's attached native value.
func (k SaleKind) IsTokenPayment() bool {
	return k == PlainToken || k == WhitelistToken || k == MerkleToken
}

// IsWhitelist reports whether the kind consumes an explicit per-address
// whitelist allowance.
func (k SaleKind) IsWhitelist() bool {
	return k == WhitelistNative || k == WhitelistToken
}

// IsMerkle reports whether the kind requires a Merkle inclusion proof.
func (k SaleKind) IsMerkle() bool {
	return k == MerkleNative || k == MerkleToken
}

func (k SaleKind) String() string {
	switch k {
	case PlainNative:
		return "plain-native"
	case PlainToken:
		return "plain-token"
	case WhitelistNative:
		return "whitelist-native"
	case WhitelistToken:
		return "whitelist-token"
	case MerkleNative:
		return "merkle-native"
	case MerkleToken:
		return "merkle-token"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// SaleKindByName resolves a kind from its canonical string form, the inverse
// of String. Used by config/genesis files.
func SaleKindByName(name string) (SaleKind, error) {
	for k := PlainNative; k <= maxSaleKind; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown sale kind: %q", name)
}
