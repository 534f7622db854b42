package launcher

// Defaults bundles the baseline configuration values the launcher uses
// before the config file and CLI flags override them.

type Defaults struct {
	Node    NodeDefaults
	Sale    SaleDefaults
	Logging LoggingDefaults
}

// NodeDefaults captures top-level node settings.
type NodeDefaults struct {
	DataDir string // filesystem root where the node stores everything (snapshots, logs); changing it lets you run multiple nodes side by side
	Name    string // human-readable node identity surfaced in logs
	CacheMB int    // memory budget for in-process caches
}

// SaleDefaults holds the deployment-specific settings.
type SaleDefaults struct {
	GenesisPath        string // path to the JSON deployment genesis; empty means FakeNet must be set
	FakeNet            bool   // use the built-in deterministic development deployment instead of a genesis file
	Preset             string // runtime profile name (default|lite|full|archive)
	SnapshotFile       string // state snapshot file; empty derives <datadir>/sale.snap
	SnapshotEveryBlock uint64 // persist a snapshot every N ledger blocks (0 takes the preset's value)
}

// LoggingDefaults controls log verbosity/format.
type LoggingDefaults struct {
	Verbosity int    // numeric logrus level (0=panic .. 6=trace)
	Format    string // log output format (text vs json)
	Color     bool   // ANSI color codes in logs; best disabled when piping to files
	SentryDSN string // Sentry endpoint for error reporting; empty disables the hook
}

// DefaultConfig returns a fully populated Defaults instance.
func DefaultConfig() Defaults {
	return Defaults{
		Node: NodeDefaults{
			DataDir: "~/.opera-badge",
			Name:    "opera-badge",
			CacheMB: 256,
		},
		Sale: SaleDefaults{
			Preset: "default",
		},
		Logging: LoggingDefaults{
			Verbosity: 4, // info
			Format:    "text",
			Color:     true,
		},
	}
}
