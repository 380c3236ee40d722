package commands

import (
	"context"

	"github.com/grlabs/grepp/pkg/apiserver"
	"github.com/grlabs/grepp/pkg/audit"
	"github.com/grlabs/grepp/pkg/backend"
	"github.com/grlabs/grepp/pkg/db"
	"github.com/grlabs/grepp/pkg/notify"
	"github.com/grlabs/grepp/pkg/registry"
	"github.com/grlabs/grepp/pkg/version"
	"github.com/rancher/wrangler/pkg/signals"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

type apiServerCommand struct{}

func (s *apiServerCommand) Execute(c *cli.Context) error {
	ctx := signals.SetupSignalHandler(context.Background())

	log := logrus.WithField("command", "api-server")

	log.Infof("version: %v", version.Get())

	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
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

	if err := ops.TestConnection(cfg.Registry.Username, cfg.Registry.Password); err != nil {
		log.WithError(err).Warn("registry connectivity check failed, continuing anyway")
	}

	queue := notify.NewQueue(database, cfg.Senders(), cfg.Notifications.MaxAttempts, cfg.Notifications.EscalateTo, nil)
	auditLog := audit.New(database)

	back, err := backend.NewBackend(database, ops, queue, auditLog, backend.Options{
		APITokenHash: cfg.API.TokenHash,
	})
	if err != nil {
		return err
	}

	apiServer := apiserver.NewAPIServer(ctx, log, c.Int("port"))

	if err := apiServer.Start(back); err != nil {
		return err
	}

	return nil
}

func serverCommand() *cli.Command {
	cmd := apiServerCommand{}

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Usage:   "Port for the HTTP Server Port",
			EnvVars: []string{"GREPP_PORT", "PORT"},
			Value:   4380,
		},
		configFlag(),
	}
	flags = append(flags, dbFlags()...)

	return &cli.Command{
		Name:   "api-server",
		Usage:  "grepp admin api server",
		Action: cmd.Execute,
		Flags:  append(flags, GlobalFlags()...),
		Before: Before,
	}
}
