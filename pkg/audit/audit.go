// Package audit keeps the append-mostly trail of domain changes required
// for registry compliance reporting.
package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/grlabs/grepp/pkg/db"
	"github.com/sirupsen/logrus"
)

// DefaultRetention is how long audit rows are kept before cleanup.
const DefaultRetention = 730 * 24 * time.Hour

type Logger struct {
	db  db.Database
	log *logrus.Entry
}

func New(database db.Database) *Logger {
	return &Logger{
		db:  database,
		log: logrus.WithField("component", "audit"),
	}
}

// LogChange records one change event and returns its reference, a UUID used
// by callers to tie notifications and status updates back to the entry.
func (l *Logger) LogChange(domain, changeType, actor, oldZone, newZone string) (string, error) {
	entry := &db.Audit{
		Reference:  uuid.New().String(),
		DomainName: domain,
		ChangeType: changeType,
		Actor:      actor,
		OldZone:    oldZone,
		NewZone:    newZone,
		Status:     db.AuditPending,
	}
	if changeType == db.ChangeUnexpected {
		entry.Status = db.AuditDetected
	}

	if err := l.db.CreateAudit(entry); err != nil {
		return "", fmt.Errorf("recording audit entry: %w", err)
	}

	l.log.WithFields(logrus.Fields{
		"reference": entry.Reference,
		"domain":    domain,
		"type":      changeType,
	}).Info("audit entry recorded")
	return entry.Reference, nil
}

func (l *Logger) MarkPreNoticeSent(reference string) error {
	return l.db.UpdateAuditFields(reference, map[string]interface{}{
		"pre_notice_sent": true,
	})
}

func (l *Logger) MarkPostNoticeSent(reference string) error {
	return l.db.UpdateAuditFields(reference, map[string]interface{}{
		"post_notice_sent": true,
	})
}

// UpdateStatus moves an entry to APPLIED or FAILED. The error message is
// stored alongside a FAILED status and cleared otherwise.
func (l *Logger) UpdateStatus(reference, status, errorMessage string) error {
	return l.db.UpdateAuditFields(reference, map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
	})
}

func (l *Logger) Trail(domain string, limit int) ([]db.Audit, error) {
	if limit <= 0 {
		limit = 50
	}
	return l.db.AuditTrail(domain, limit)
}

// Cleanup removes entries older than the retention window and returns the
// number purged. Zero retention applies the default.
func (l *Logger) Cleanup(retention time.Duration) (int64, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	purged, err := l.db.PurgeOldAudits(retention)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		l.log.WithField("purged", purged).Info("audit cleanup complete")
	}
	return purged, nil
}

// ExportCSV writes entries in the given window as CSV, newest first.
func (l *Logger) ExportCSV(w io.Writer, from, to time.Time) error {
	entries, err := l.db.AuditsBetween(from, to)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"reference", "domain", "change_type", "actor", "status", "pre_notice_sent", "post_notice_sent", "error_message", "created_at"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			e.Reference,
			e.DomainName,
			e.ChangeType,
			e.Actor,
			e.Status,
			fmt.Sprintf("%t", e.PreNoticeSent),
			fmt.Sprintf("%t", e.PostNoticeSent),
			e.ErrorMessage,
			e.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ComplianceSummary aggregates a reporting window for operators.
type ComplianceSummary struct {
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	TotalChanges     int       `json:"total_changes"`
	Applied          int       `json:"applied"`
	Failed           int       `json:"failed"`
	Unexpected       int       `json:"unexpected"`
	MissingPreNotice int       `json:"missing_pre_notice"`
}

func (l *Logger) Summary(from, to time.Time) (ComplianceSummary, error) {
	summary := ComplianceSummary{From: from, To: to}

	entries, err := l.db.AuditsBetween(from, to)
	if err != nil {
		return summary, err
	}

	summary.TotalChanges = len(entries)
	for _, e := range entries {
		switch e.Status {
		case db.AuditApplied:
			summary.Applied++
		case db.AuditFailed:
			summary.Failed++
		}
		if e.ChangeType == db.ChangeUnexpected {
			summary.Unexpected++
		}
		if e.ChangeType == db.ChangePre && !e.PreNoticeSent {
			summary.MissingPreNotice++
		}
	}
	return summary, nil
}
