// This file maps the CLI context onto the launcher's aggregated config:
// defaults first, then the optional JSON config file, then flag overrides.

package launcher

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-opera-badge/integration"
)

// Config aggregates every subsystem's configuration the launcher needs.
type Config struct {
	Node    NodeConfig
	Sale    SaleConfig
	Preset  integration.PresetConfig
	Logging LoggingConfig
}

type NodeConfig struct {
	DataDir string
	Name    string
	CacheMB int
}

type SaleConfig struct {
	GenesisPath        string
	FakeNet            bool
	SnapshotFile       string
	SnapshotEveryBlock uint64
}

type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
	SentryDSN string
}

func defaultConfig() Config {
	d := DefaultConfig()
	return Config{
		Node: NodeConfig{
			DataDir: resolvePath(d.Node.DataDir),
			Name:    d.Node.Name,
			CacheMB: d.Node.CacheMB,
		},
		Sale: SaleConfig{
			GenesisPath:        d.Sale.GenesisPath,
			FakeNet:            d.Sale.FakeNet,
			SnapshotFile:       d.Sale.SnapshotFile,
			SnapshotEveryBlock: d.Sale.SnapshotEveryBlock,
		},
		Preset: integration.DefaultPreset(),
		Logging: LoggingConfig{
			Verbosity: d.Logging.Verbosity,
			Format:    d.Logging.Format,
			Color:     d.Logging.Color,
			SentryDSN: d.Logging.SentryDSN,
		},
	}
}

// MakeAllConfigs merges defaults, the optional config file, the selected
// preset and CLI flag overrides into a single config struct.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if file := ctx.String("config"); file != "" {
		if err := loadConfigFile(resolvePath(file), &cfg); err != nil {
			return Config{}, err
		}
	}

	if name := ctx.String("preset"); name != "" {
		preset, err := integration.GetPresetByName(name)
		if err != nil {
			return Config{}, err
		}
		integration.ApplyPreset(&cfg.Preset, preset)
	}

	applyCLIOverrides(ctx, &cfg)

	// derived paths
	if cfg.Sale.SnapshotFile == "" {
		cfg.Sale.SnapshotFile = filepath.Join(cfg.Node.DataDir, "sale.snap")
	}
	if cfg.Sale.SnapshotEveryBlock == 0 {
		cfg.Sale.SnapshotEveryBlock = cfg.Preset.SnapshotEveryBlock
	}

	if err := ensureDir(cfg.Node.DataDir); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// -----------------------------------------------------------------------------
// Config-file / CLI wiring
// -----------------------------------------------------------------------------

func loadConfigFile(path string, cfg *Config) error {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) {
	if ctx.IsSet("datadir") {
		cfg.Node.DataDir = resolvePath(ctx.String("datadir"))
	}
	if ctx.IsSet("cache") {
		cfg.Node.CacheMB = ctx.Int("cache")
		cfg.Preset.CacheMB = ctx.Int("cache")
	}

	if ctx.IsSet("genesis") {
		cfg.Sale.GenesisPath = resolvePath(ctx.String("genesis"))
	}
	if ctx.Bool("fakenet") {
		cfg.Sale.FakeNet = true
	}
	if ctx.IsSet("saledb.file") {
		cfg.Sale.SnapshotFile = resolvePath(ctx.String("saledb.file"))
	}
	if ctx.IsSet("saledb.every") {
		cfg.Sale.SnapshotEveryBlock = ctx.Uint64("saledb.every")
	}

	if ctx.IsSet("log.format") {
		cfg.Logging.Format = ctx.String("log.format")
	}
	if ctx.IsSet("log.verbosity") {
		cfg.Logging.Verbosity = ctx.Int("log.verbosity")
	}
	if ctx.IsSet("log.color") {
		cfg.Logging.Color = ctx.Bool("log.color")
	}
	if ctx.IsSet("sentry.dsn") {
		cfg.Logging.SentryDSN = ctx.String("sentry.dsn")
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create datadir %s: %w", dir, err)
	}
	return nil
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
