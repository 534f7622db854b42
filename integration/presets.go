// Package integration provides named runtime profiles for the badge sale
// node. A preset bundles the tunables that trade durability against
// overhead (snapshot cadence, history retention, verbosity) so operators
// can pick a profile instead of tweaking individual flags.
//
// Usage:
//
//	cfg := integration.LitePreset()    // local development
//	cfg := integration.FullPreset()    // production sale node
//	cfg := integration.ArchivePreset() // analytics / audit trail
//
// Each preset returns a PresetConfig that the launcher merges into its
// main config during startup.
package integration

import "fmt"

// PresetConfig captures the tunables that vary across profiles. Settings
// that never vary (network id, contract addresses) live in the genesis
// file instead.
type PresetConfig struct {
	Name               string // profile identifier surfaced in logs and config dumps
	SnapshotEveryBlock uint64 // persist a state snapshot every N ledger blocks
	RetainSnapshots    int    // how many historical snapshots to keep (0 keeps only the latest)
	CacheMB            int    // memory budget for in-process caches
	EnableMetrics      bool   // expose runtime metrics endpoints
	EnableTracing      bool   // emit per-purchase trace logs (Debug level)
}

// DefaultPreset is the balanced baseline the other profiles derive from.
func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:               "default",
		SnapshotEveryBlock: 100, // snapshot every 100 blocks: bounded replay after a crash
		RetainSnapshots:    0,   // only the latest snapshot; history is the host ledger's job
		CacheMB:            256,
		EnableMetrics:      false,
		EnableTracing:      false,
	}
}

// LitePreset is tuned for development and CI: frequent snapshots and full
// tracing so failures are easy to reconstruct, at the cost of overhead
// that would be unacceptable in production.
func LitePreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "lite"
	cfg.SnapshotEveryBlock = 1 // snapshot every block: maximal debuggability
	cfg.RetainSnapshots = 10
	cfg.CacheMB = 64
	cfg.EnableMetrics = true
	cfg.EnableTracing = true
	return cfg
}

// FullPreset is the production profile for a live sale: infrequent
// snapshots to keep the hot path cheap, metrics on for monitoring,
// per-purchase tracing off.
func FullPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "full"
	cfg.SnapshotEveryBlock = 1000
	cfg.RetainSnapshots = 2
	cfg.CacheMB = 1024
	cfg.EnableMetrics = true
	cfg.EnableTracing = false
	return cfg
}

// ArchivePreset retains every snapshot ever taken, for explorers and audit
// tooling that reconstruct historical sale state. Disk usage grows with
// the chain.
func ArchivePreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "archive"
	cfg.SnapshotEveryBlock = 10
	cfg.RetainSnapshots = -1 // negative means unbounded retention
	cfg.CacheMB = 4096
	cfg.EnableMetrics = true
	cfg.EnableTracing = true
	return cfg
}

// GetPresetByName resolves a profile from its CLI identifier, enabling
// flags like --preset=full.
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "lite":
		return LitePreset(), nil
	case "full":
		return FullPreset(), nil
	case "archive":
		return ArchivePreset(), nil
	case "default":
		return DefaultPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: lite, full, archive, default)", name)
	}
}

// ApplyPreset merges a preset into a target config. Zero-valued numeric
// and string fields are treated as "not set" and leave the target alone;
// booleans are always applied.
func ApplyPreset(target *PresetConfig, preset PresetConfig) {
	if preset.Name != "" {
		target.Name = preset.Name
	}
	if preset.SnapshotEveryBlock > 0 {
		target.SnapshotEveryBlock = preset.SnapshotEveryBlock
	}
	if preset.RetainSnapshots != 0 {
		target.RetainSnapshots = preset.RetainSnapshots
	}
	if preset.CacheMB > 0 {
		target.CacheMB = preset.CacheMB
	}
	target.EnableMetrics = preset.EnableMetrics
	target.EnableTracing = preset.EnableTracing
}
