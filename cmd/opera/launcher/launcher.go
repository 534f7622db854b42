package launcher

import (
	"errors"
	"fmt"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-opera-badge/flags"
	"github.com/rony4d/go-opera-badge/inter"
	"github.com/rony4d/go-opera-badge/opera/genesis"
	"github.com/rony4d/go-opera-badge/opera/saledb"
)

var app = flags.NewApp()

func init() {
	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.SaleFlags()...)
	app.Action = runNode
}

// Launch parses the command line and starts the badge sale node.
func Launch(args []string) error {
	return app.Run(args)
}

func runNode(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}

	lg, err := makeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	lg.WithFields(logrus.Fields{
		"datadir": cfg.Node.DataDir,
		"preset":  cfg.Preset.Name,
	}).Info("starting badge sale node")

	g, err := loadGenesis(cfg.Sale)
	if err != nil {
		return err
	}
	dep, err := g.Apply(lg)
	if err != nil {
		return err
	}

	store := saledb.NewStore(cfg.Sale.SnapshotFile, lg)
	snap, err := store.Load()
	switch err {
	case nil:
		// resume: the snapshot's state replaces the genesis state, then the
		// trust links are re-established from the live contract objects
		dep.Engine.RestoreState(snap.State)
		owner := inter.DirectCall(dep.Engine.Owner())
		if err := dep.Engine.SetBadgeContract(owner, dep.Badge.Address(), dep.Badge); err != nil {
			return err
		}
		if dep.Token != nil {
			if err := dep.Engine.SetPaymentToken(owner, dep.Engine.PaymentTokenAddress(), dep.Token); err != nil {
				return err
			}
		}
		lg.WithField("block", snap.Block).Info("resumed from snapshot")
	case saledb.ErrNoSnapshot:
		// fresh datadir: persist the genesis state at height zero
		if err := store.Save(&saledb.Snapshot{Block: 0, State: dep.Engine.ExportState()}); err != nil {
			return err
		}
	default:
		return err
	}

	logCatalog(lg, dep)
	return nil
}

func loadGenesis(cfg SaleConfig) (*genesis.Genesis, error) {
	if cfg.FakeNet {
		return genesis.FakeNetGenesis(), nil
	}
	if cfg.GenesisPath == "" {
		return nil, errors.New("no deployment configured: pass --genesis <file> or --fakenet")
	}
	return genesis.LoadGenesis(cfg.GenesisPath)
}

// makeLogger configures logrus from the logging config and attaches the
// Sentry hook when a DSN is set.
func makeLogger(cfg LoggingConfig) (*logrus.Logger, error) {
	lg := logrus.New()

	level := cfg.Verbosity
	if level < 0 {
		level = 0
	}
	if level > int(logrus.TraceLevel) {
		level = int(logrus.TraceLevel)
	}
	lg.SetLevel(logrus.Level(level))

	switch cfg.Format {
	case "json":
		lg.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		lg.SetFormatter(&logrus.TextFormatter{
			ForceColors:   cfg.Color,
			DisableColors: !cfg.Color,
			FullTimestamp: true,
		})
	default:
		return nil, fmt.Errorf("unknown log format: %q", cfg.Format)
	}

	if cfg.SentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(cfg.SentryDSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return nil, fmt.Errorf("sentry hook: %w", err)
		}
		lg.Hooks.Add(hook)
	}
	return lg, nil
}

func logCatalog(lg *logrus.Logger, dep *genesis.Deployment) {
	for i := 0; i < dep.Engine.CatalogLen(); i++ {
		id := inter.SaleID(i)
		ev, err := dep.Engine.SaleEventOf(id)
		if err != nil {
			continue
		}
		lg.WithFields(logrus.Fields{
			"sale":     id,
			"kind":     ev.Kind.String(),
			"sold":     ev.CurrentTotalUnits,
			"maxTotal": ev.MaxTotalUnits,
			"price":    ev.UnitPrice.String(),
			"active":   dep.Engine.IsActive(id),
		}).Info("sale event")
	}
}
