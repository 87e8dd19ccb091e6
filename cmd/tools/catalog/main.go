// Command catalog audits shop stock per area and syncs the catalog into
// Postgres and Elasticsearch.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"shop-concierge/internal/app"
	"shop-concierge/internal/catalog"
	"shop-concierge/internal/common/config"
	"shop-concierge/internal/common/logger"
)

func main() {
	cliApp := &cli.App{
		Name:  "catalog",
		Usage: "Inspect and sync the shop catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a config file (defaults to ./configs/config.yaml)",
			},
		},
		Commands: []*cli.Command{
			auditCmd,
			syncCmd,
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var auditCmd = &cli.Command{
	Name:    "audit",
	Usage:   "Report active shops per area against the allocation minimum",
	Aliases: []string{"a"},
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "required",
			Usage: "minimum active shops per area (defaults to allocation.shops_per_area)",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print the report as JSON",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "exit non-zero when any area is short",
		},
	},
	Action: func(ctx *cli.Context) error {
		cfg, log, err := setup(ctx)
		if err != nil {
			return err
		}
		stores, err := app.OpenStores(ctx.Context, cfg, app.StoreOptions{Attempts: 3, Delay: time.Second}, log)
		if err != nil {
			return err
		}
		defer stores.Close()

		shops, err := stores.Catalog.ListAll(ctx.Context)
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}

		required := ctx.Int("required")
		if required <= 0 {
			required = cfg.Allocation.ShopsPerArea
		}
		report := catalog.Audit(shops, required)

		if ctx.Bool("json") {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			printAudit(report)
		}

		if ctx.Bool("strict") {
			for _, a := range report {
				if !a.OK() {
					return errors.New("one or more areas are below the minimum")
				}
			}
		}
		return nil
	},
}

var syncCmd = &cli.Command{
	Name:    "sync",
	Usage:   "Copy the catalog into Postgres and Elasticsearch, then drop cached pools",
	Aliases: []string{"s"},
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "skip-postgres",
			Usage: "do not write the Postgres read model",
		},
	},
	Action: func(ctx *cli.Context) error {
		cfg, log, err := setup(ctx)
		if err != nil {
			return err
		}
		if cfg.Datastore.Backend != "airtable" {
			return fmt.Errorf("sync reads from airtable; datastore.backend is %q", cfg.Datastore.Backend)
		}

		stores, err := app.OpenStores(ctx.Context, cfg, app.StoreOptions{
			Attempts:        3,
			Delay:           time.Second,
			ConnectPostgres: !ctx.Bool("skip-postgres"),
		}, log)
		if err != nil {
			return err
		}
		defer stores.Close()

		var targets []catalog.Target
		if stores.Postgres != nil {
			targets = append(targets, catalog.Target{Name: "postgres", Writer: stores.Postgres})
		}
		if stores.AreaIndex != nil {
			targets = append(targets, catalog.Target{
				Name:    "elasticsearch",
				Writer:  stores.AreaIndex,
				Prepare: stores.AreaIndex.EnsureIndex,
			})
		}
		if len(targets) == 0 {
			return errors.New("nothing to sync: postgres skipped and elasticsearch disabled")
		}

		var cache catalog.Invalidator
		if stores.Cache != nil {
			cache = stores.Cache
		}

		report, err := catalog.NewSyncer(stores.Catalog, targets, cache, log).Run(ctx.Context)
		if report != nil {
			fmt.Printf("read %d shops, written %v, invalidated %d cache keys\n",
				report.Read, report.Written, report.Invalidated)
		}
		return err
	},
}

func setup(ctx *cli.Context) (*config.Config, logger.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := ctx.String("config"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.NewStructured(cfg.Logging.Level, "console", "stderr"), nil
}

func printAudit(report []catalog.AreaStock) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AREA\tACTIVE\tINACTIVE\tREQUIRED\tSTATUS")
	for _, a := range report {
		status := "ok"
		if !a.OK() {
			status = fmt.Sprintf("short %d", a.Short)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", a.Area, a.Active, a.Inactive, a.Required, status)
	}
	w.Flush()
}
