// Package opera defines the operational rules for a badge sale deployment.
//
// Rules bundle the limits that bound administrative and public operations:
// batch sizes, Merkle proof depth and the default bot-blocking stance.
// They are fixed per deployment (main, test, fake) and consumed by the
// contract packages, which never hard-code these bounds themselves.
package opera

import (
	"encoding/json"
)

// Network identification constants.
const (
	// MainNetworkID is the chain ID the production deployment targets.
	MainNetworkID uint64 = 0xfa

	// TestNetworkID is the chain ID of the public test deployment.
	TestNetworkID uint64 = 0xfa2

	// FakeNetworkID is the chain ID for local/fake deployments used in testing.
	FakeNetworkID uint64 = 0xfa3

	// PriceDecimals is the fixed-point convention for unit prices: amounts
	// are denominated in wei, 10^18 wei per whole currency unit.
	PriceDecimals = 18
)

// Rules describes the complete operational configuration of one deployment.
type Rules struct {
	Name      string // deployment name identifier ("main", "test", "fake")
	NetworkID uint64 // chain ID of the host ledger

	// Limits bound the sizes accepted by administrative and public calls.
	Limits LimitsRules

	// BotBlockDefault is the initial state of the bot-blocking toggle:
	// when enabled, purchases proxied through another contract are rejected.
	BotBlockDefault bool
}

// LimitsRules bounds call sizes. These exist to keep single calls within the
// host's per-call resource budget; none of them constrain totals over time.
type LimitsRules struct {
	// MaxBatchMint caps the number of recipients in one administrative
	// batch-mint call.
	MaxBatchMint int

	// MaxWhitelistBatch caps the number of entries in one batch whitelist
	// allowance grant.
	MaxWhitelistBatch int

	// MaxMerkleProofDepth caps the sibling count of a Merkle inclusion
	// proof. Depth 32 covers allowlists of ~4 billion members.
	MaxMerkleProofDepth int
}

// MainNetRules returns the production deployment configuration.
func MainNetRules() Rules {
	return Rules{
		Name:            "main",
		NetworkID:       MainNetworkID,
		Limits:          DefaultLimitsRules(),
		BotBlockDefault: true, // production sales start with bot blocking on
	}
}

// TestNetRules returns the public-testnet deployment configuration.
// Testnet mirrors mainnet limits for realistic rehearsals.
func TestNetRules() Rules {
	return Rules{
		Name:            "test",
		NetworkID:       TestNetworkID,
		Limits:          DefaultLimitsRules(),
		BotBlockDefault: true,
	}
}

// FakeNetRules returns the configuration for local/fake deployments:
// relaxed batch limits so test fixtures can be seeded in few calls, and
// bot blocking off by default since test harnesses routinely proxy calls.
func FakeNetRules() Rules {
	return Rules{
		Name:      "fake",
		NetworkID: FakeNetworkID,
		Limits: LimitsRules{
			MaxBatchMint:        1000,
			MaxWhitelistBatch:   1000,
			MaxMerkleProofDepth: 32,
		},
		BotBlockDefault: false,
	}
}

// DefaultLimitsRules returns the production call-size bounds.
func DefaultLimitsRules() LimitsRules {
	return LimitsRules{
		MaxBatchMint:        200, // keeps a batch mint within one call's budget
		MaxWhitelistBatch:   500,
		MaxMerkleProofDepth: 32,
	}
}

// Copy creates a copy of Rules. Rules currently holds no reference types,
// but callers should still use Copy so adding one later cannot introduce
// shared-state bugs.
func (r Rules) Copy() Rules {
	return r
}

// String returns a JSON representation of Rules for debugging and logging.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}
