package db

import (
	"time"
)

type Database interface {
	// Domains
	GetDomain(name string) (Domain, error)
	UpsertDomain(d *Domain) error
	ListTrackedDomains(suffixes []string) ([]Domain, error)
	ListAlertDomains() ([]Domain, error)
	UpdateDomainFields(id uint, fields map[string]interface{}) error

	// DNS snapshots
	LatestSnapshot(domain string) (Snapshot, error)
	SaveSnapshot(domain, records string) error

	// Audit trail
	CreateAudit(a *Audit) error
	UpdateAuditFields(reference string, fields map[string]interface{}) error
	AuditTrail(domain string, limit int) ([]Audit, error)
	AuditsBetween(from, to time.Time) ([]Audit, error)
	PurgeOldAudits(retention time.Duration) (int64, error)

	// Notification queue
	EnqueueNotification(n *Notification) error
	DueNotifications(now time.Time, limit int) ([]Notification, error)
	MarkDelivered(id uint, now time.Time) error
	BumpRetry(id uint, attempt int, lastError string, next time.Time) error
	QueueStats() (QueueStats, error)
}
