package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// SaleFlags holds the knobs specific to the badge sale deployment.
func SaleFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "genesis",
			Usage: "Path to the deployment genesis file (JSON)",
		},
		cli.BoolFlag{
			Name:  "fakenet",
			Usage: "Use the built-in deterministic development deployment",
		},
		cli.StringFlag{
			Name:  "preset",
			Usage: "Runtime profile (default|lite|full|archive)",
			Value: "default",
		},
		cli.StringFlag{
			Name:  "saledb.file",
			Usage: "Override path to the state snapshot file (defaults to <datadir>/sale.snap)",
		},
		cli.Uint64Flag{
			Name:  "saledb.every",
			Usage: "Persist a state snapshot every N ledger blocks",
		},
		cli.IntFlag{
			Name:  "cache",
			Usage: "Megabytes of memory allocated to internal caching",
		},
	}
}
