// Package syncer reconciles registry state into local domain metadata.
package syncer

import (
	"context"
	"time"

	"github.com/grlabs/grepp/pkg/db"
	"github.com/sirupsen/logrus"
)

// DefaultDelay is the fixed pause between registry calls. The registry's
// proxy is rate-sensitive; the delay is a crude but sufficient limiter for
// sequential sync runs.
const DefaultDelay = 250 * time.Millisecond

// Suffixes are the TLDs the registry serves.
var Suffixes = []string{"gr", "ελ"}

// Reconciler maps one domain's registry answer onto its local row.
// Satisfied by *registry.Operations.
type Reconciler interface {
	SyncDomain(d *db.Domain) (bool, error)
}

// Stats summarizes one sync run.
type Stats struct {
	Total           int `json:"total"`
	Updated         int `json:"updated"`
	Expired         int `json:"expired"`
	TransferredAway int `json:"transferred_away"`
	Errors          int `json:"errors"`
	Skipped         int `json:"skipped"`
}

type Syncer struct {
	db    db.Database
	reg   Reconciler
	delay time.Duration
	log   *logrus.Entry
}

// New builds a syncer. A zero delay applies DefaultDelay.
func New(database db.Database, reg Reconciler, delay time.Duration) *Syncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Syncer{
		db:    database,
		reg:   reg,
		delay: delay,
		log:   logrus.WithField("component", "syncer"),
	}
}

// Run reconciles every tracked domain sequentially. Per-domain failures are
// counted and logged; only a store failure listing the domains aborts the
// run. Context cancellation stops between domains, never mid-call.
func (s *Syncer) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	domains, err := s.db.ListTrackedDomains(Suffixes)
	if err != nil {
		return stats, err
	}
	stats.Total = len(domains)

	for i, domain := range domains {
		if ctx.Err() != nil {
			stats.Skipped = len(domains) - i
			s.log.WithField("skipped", stats.Skipped).Warn("sync run cancelled")
			break
		}
		if i > 0 {
			time.Sleep(s.delay)
		}

		s.syncOne(domain, &stats)
	}

	s.log.WithFields(logrus.Fields{
		"total":            stats.Total,
		"updated":          stats.Updated,
		"expired":          stats.Expired,
		"transferred_away": stats.TransferredAway,
		"errors":           stats.Errors,
	}).Info("domain sync complete")
	return stats, nil
}

func (s *Syncer) syncOne(domain db.Domain, stats *Stats) {
	log := s.log.WithField("domain", domain.Name)

	changed, err := s.reg.SyncDomain(&domain)
	if err != nil {
		stats.Errors++
		log.WithError(err).Error("sync failed")
		return
	}

	switch domain.Status {
	case db.StatusExpired:
		stats.Expired++
	case db.StatusTransferredAway:
		stats.TransferredAway++
	}

	fields := map[string]interface{}{
		"last_synced": domain.LastSynced,
	}
	if changed {
		fields["status"] = domain.Status
		fields["expires"] = domain.Expires
		fields["registered"] = domain.Registered
		fields["pending_delete"] = domain.PendingDelete
		stats.Updated++
	}

	if err := s.db.UpdateDomainFields(domain.ID, fields); err != nil {
		stats.Errors++
		log.WithError(err).Error("failed to store sync result")
		return
	}

	if changed {
		log.WithField("status", domain.Status).Info("domain reconciled")
	}
}
