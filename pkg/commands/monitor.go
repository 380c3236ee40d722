package commands

import (
	"context"
	"encoding/json"
	"time"

	"github.com/grlabs/grepp/pkg/audit"
	"github.com/grlabs/grepp/pkg/db"
	"github.com/grlabs/grepp/pkg/monitor"
	"github.com/grlabs/grepp/pkg/notify"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

type monitorJobCommand struct{}

// Execute is the one-shot cron run: drain due notifications, check DNS for
// alert-enabled domains, record and alert on unexpected changes, then purge
// aged audit rows. It exits zero when skipped (lock contention or the
// feature disabled) and non-zero only on initialization failure.
func (m *monitorJobCommand) Execute(c *cli.Context) error {
	ctx := context.Background()
	log := logrus.WithField("command", "monitor")

	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	if !cfg.Monitor.Enabled {
		log.Info("monitoring is disabled, nothing to do")
		return nil
	}

	release, acquired, err := acquireLock(cfg.Monitor.LockFile, time.Duration(cfg.Monitor.LockStaleSecs)*time.Second)
	if err != nil {
		return err
	}
	if !acquired {
		log.Info("another monitor run holds the lock, skipping")
		return nil
	}
	defer release()

	database, err := db.New(ctx, c.String("sql-dialect"), c.String("sql-dsn"), &gorm.Config{
		Logger: db.NewLogger(c.String("log-level")),
	})
	if err != nil {
		return err
	}

	queue := notify.NewQueue(database, cfg.Senders(), cfg.Notifications.MaxAttempts, cfg.Notifications.EscalateTo, nil)
	auditLog := audit.New(database)
	mon := monitor.New(database, nil)

	if _, err := queue.DispatchDue(ctx, c.Int("batch-size")); err != nil {
		log.WithError(err).Error("notification dispatch failed")
	}

	m.checkDomains(ctx, log, cfg, database, mon, auditLog, queue)

	if _, err := auditLog.Cleanup(time.Duration(cfg.Monitor.RetentionDays) * 24 * time.Hour); err != nil {
		log.WithError(err).Error("audit cleanup failed")
	}

	return nil
}

// checkDomains walks the alert-enabled domains and diffs live DNS against
// the stored snapshots, honoring each domain's check interval. Failures are
// per-domain; the walk always completes.
func (m *monitorJobCommand) checkDomains(ctx context.Context, log *logrus.Entry, cfg *Config,
	database db.Database, mon *monitor.Monitor, auditLog *audit.Logger, queue *notify.Queue) {

	domains, err := database.ListAlertDomains()
	if err != nil {
		log.WithError(err).Error("failed to list alert domains")
		return
	}

	for _, domain := range domains {
		interval := time.Duration(domain.CheckIntervalSecs) * time.Second
		if interval <= 0 {
			interval = time.Duration(cfg.Monitor.CheckIntervalSecs) * time.Second
		}

		last, err := database.LatestSnapshot(domain.Name)
		if err == nil && last.ID != 0 && time.Since(last.CreatedAt) < interval {
			continue
		}

		changes, err := mon.CheckDomain(ctx, domain.Name)
		if err != nil {
			log.WithError(err).WithField("domain", domain.Name).Error("DNS check failed")
			continue
		}
		if len(changes) == 0 {
			continue
		}

		m.alertUnexpected(log, domain, changes, auditLog, queue)
	}
}

func (m *monitorJobCommand) alertUnexpected(log *logrus.Entry, domain db.Domain,
	changes []notify.Change, auditLog *audit.Logger, queue *notify.Queue) {

	oldZone, newZone := encodeChanges(changes)
	reference, err := auditLog.LogChange(domain.Name, db.ChangeUnexpected, "monitor", oldZone, newZone)
	if err != nil {
		log.WithError(err).WithField("domain", domain.Name).Error("failed to record unexpected change")
		return
	}

	if domain.OwnerEmail == "" {
		log.WithField("domain", domain.Name).Warn("unexpected change but no owner email configured")
		return
	}

	payload := notify.UnexpectedChangePayload(domain.Name, time.Now(), changes)
	if err := queue.Enqueue(reference, db.ChangeUnexpected, db.ChannelEmail, domain.OwnerEmail, payload); err != nil {
		log.WithError(err).WithField("domain", domain.Name).Error("failed to queue alert")
		return
	}

	if err := auditLog.MarkPostNoticeSent(reference); err != nil {
		log.WithError(err).WithField("reference", reference).Error("failed to flag notice")
	}
}

func encodeChanges(changes []notify.Change) (oldZone, newZone string) {
	oldSet := map[string]string{}
	newSet := map[string]string{}
	for _, c := range changes {
		oldSet[c.Type] = c.OldValue
		newSet[c.Type] = c.NewValue
	}
	oldRaw, _ := json.Marshal(oldSet)
	newRaw, _ := json.Marshal(newSet)
	return string(oldRaw), string(newRaw)
}

func monitorCommand() *cli.Command {
	cmd := monitorJobCommand{}

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "batch-size",
			Usage:   "Max queued notifications processed per run",
			EnvVars: []string{"GREPP_BATCH_SIZE"},
			Value:   50,
		},
		configFlag(),
	}
	flags = append(flags, dbFlags()...)

	return &cli.Command{
		Name:   "monitor",
		Usage:  "one-shot monitor run: dispatch notifications and check DNS changes",
		Action: cmd.Execute,
		Flags:  append(flags, GlobalFlags()...),
		Before: Before,
	}
}
