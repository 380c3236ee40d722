package commands

import (
	"context"
	"time"

	"github.com/grlabs/grepp/pkg/db"
	"github.com/grlabs/grepp/pkg/registry"
	"github.com/grlabs/grepp/pkg/syncer"
	"github.com/rancher/wrangler/pkg/signals"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

type syncJobCommand struct{}

// Execute reconciles registry state into local domain metadata. Missing
// credentials are a fatal initialization failure; per-domain errors are
// counted in the stats and never abort the run.
func (s *syncJobCommand) Execute(c *cli.Context) error {
	ctx := signals.SetupSignalHandler(context.Background())
	log := logrus.WithField("command", "sync-domains")

	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	database, err := db.New(ctx, c.String("sql-dialect"), c.String("sql-dsn"), &gorm.Config{
		Logger: db.NewLogger(c.String("log-level")),
	})
	if err != nil {
		return err
	}

	eppClient, err := cfg.EppClient()
	if err != nil {
		return err
	}
	defer eppClient.Close()

	ops := registry.New(eppClient, cfg.Registry.RegistrarID, cfg.DefaultContact)
	recon := syncer.New(database, ops, time.Duration(c.Int("delay-ms"))*time.Millisecond)

	stats, err := recon.Run(ctx)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"total":            stats.Total,
		"updated":          stats.Updated,
		"expired":          stats.Expired,
		"transferred_away": stats.TransferredAway,
		"errors":           stats.Errors,
		"skipped":          stats.Skipped,
	}).Info("sync run finished")
	return nil
}

func syncCommand() *cli.Command {
	cmd := syncJobCommand{}

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "delay-ms",
			Usage:   "Delay between registry calls in milliseconds",
			EnvVars: []string{"GREPP_SYNC_DELAY_MS"},
			Value:   250,
		},
		configFlag(),
	}
	flags = append(flags, dbFlags()...)

	return &cli.Command{
		Name:   "sync-domains",
		Usage:  "reconcile registry state into local domain metadata",
		Action: cmd.Execute,
		Flags:  append(flags, GlobalFlags()...),
		Before: Before,
	}
}
