package inter

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// addr builds a deterministic test address from a single byte.
func addr(b byte) common.Address {
	var a common.Address
	a[common.AddressLength-1] = b
	return a
}

// TestSaleKindClassification verifies the classification helpers against the
// full enumeration. The numeric values are part of the external selector
// interface, so the expected table is written out explicitly.
func TestSaleKindClassification(t *testing.T) {
	tests := []struct {
		kind      SaleKind
		value     uint8
		token     bool
		whitelist bool
		merkle    bool
	}{
		{PlainNative, 0, false, false, false},
		{PlainToken, 1, true, false, false},
		{WhitelistNative, 2, false, true, false},
		{WhitelistToken, 3, true, true, false},
		{MerkleNative, 4, false, false, true},
		{MerkleToken, 5, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if uint8(tt.kind) != tt.value {
				t.Errorf("%s = %d, want %d", tt.kind, uint8(tt.kind), tt.value)
			}
			if tt.kind.IsTokenPayment() != tt.token {
				t.Errorf("IsTokenPayment() = %v, want %v", tt.kind.IsTokenPayment(), tt.token)
			}
			if tt.kind.IsWhitelist() != tt.whitelist {
				t.Errorf("IsWhitelist() = %v, want %v", tt.kind.IsWhitelist(), tt.whitelist)
			}
			if tt.kind.IsMerkle() != tt.merkle {
				t.Errorf("IsMerkle() = %v, want %v", tt.kind.IsMerkle(), tt.merkle)
			}
			if !tt.kind.Valid() {
				t.Errorf("Valid() = false for recognized kind %s", tt.kind)
			}
		})
	}

	if SaleKind(6).Valid() {
		t.Error("Valid() = true for out-of-range kind 6")
	}
}

// TestSaleKindByName verifies the round-trip between String and SaleKindByName.
func TestSaleKindByName(t *testing.T) {
	require := require.New(t)

	for k := PlainNative; k <= maxSaleKind; k++ {
		parsed, err := SaleKindByName(k.String())
		require.NoError(err)
		require.Equal(k, parsed)
	}

	_, err := SaleKindByName("free-mint")
	require.Error(err)
}

// TestSaleEventCopy verifies that Copy detaches the UnitPrice pointer.
func TestSaleEventCopy(t *testing.T) {
	ev := NewSaleEvent(PlainNative, 100, 2, big.NewInt(1e18))
	cp := ev.Copy()

	cp.UnitPrice.SetInt64(7)
	if ev.UnitPrice.Cmp(big.NewInt(1e18)) != 0 {
		t.Errorf("UnitPrice mutated through copy: %s", ev.UnitPrice)
	}
}

// TestSaleEventRemaining covers the silently-frozen case where an admin moves
// the cap below the already-sold counter.
func TestSaleEventRemaining(t *testing.T) {
	ev := NewSaleEvent(PlainNative, 10, 2, big.NewInt(1))
	ev.CurrentTotalUnits = 4
	if got := ev.Remaining(); got != 6 {
		t.Errorf("Remaining() = %d, want 6", got)
	}

	ev.MaxTotalUnits = 3 // cap moved below counter
	if got := ev.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0 when cap < counter", got)
	}
}

// TestCallEnvelope verifies value normalization and the origin-preserving
// internal-call derivation.
func TestCallEnvelope(t *testing.T) {
	require := require.New(t)

	alice := addr(0xaa)
	engine := addr(0xee)

	call := DirectCall(alice)
	require.Equal(alice, call.Caller)
	require.Equal(alice, call.Origin)
	require.Equal(int64(0), call.AttachedValue().Int64())

	paid := call.WithValue(big.NewInt(42))
	require.Equal(int64(42), paid.AttachedValue().Int64())
	// WithValue must not alias the argument
	v := big.NewInt(5)
	aliased := call.WithValue(v)
	v.SetInt64(9)
	require.Equal(int64(5), aliased.AttachedValue().Int64())

	nested := paid.Internal(engine)
	require.Equal(engine, nested.Caller)
	require.Equal(alice, nested.Origin)
	require.Equal(int64(0), nested.AttachedValue().Int64())
}
