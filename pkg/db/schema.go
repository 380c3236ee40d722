package db

import (
	"time"

	"gorm.io/gorm"
)

// Domain status values mirrored into local storage.
const (
	StatusActive          = "Active"
	StatusPending         = "Pending"
	StatusSuspended       = "Suspended"
	StatusExpired         = "Expired"
	StatusTransferredAway = "Transferred Away"
)

// Domain is the locally tracked registry metadata for one domain.
type Domain struct {
	gorm.Model
	Name              string `gorm:"uniqueIndex"`
	Status            string
	OwnerEmail        string
	Registered        time.Time
	Expires           time.Time
	PendingDelete     bool
	Notes             string
	AlertsEnabled     bool
	CheckIntervalSecs int
	LastSynced        time.Time
}

// Snapshot is one observed DNS record set for a domain. Records holds the
// type→values mapping as JSON; one row per check, diffed against the most
// recent prior row.
type Snapshot struct {
	ID        uint   `gorm:"primarykey"`
	Domain    string `gorm:"index:idx_snapshot_domain"`
	Records   string `gorm:"type:text"`
	CreatedAt time.Time
}

// Audit change types and statuses.
const (
	ChangePre        = "PRE"
	ChangePost       = "POST"
	ChangeUnexpected = "UNEXPECTED"

	AuditPending  = "PENDING"
	AuditApplied  = "APPLIED"
	AuditFailed   = "FAILED"
	AuditDetected = "DETECTED"
)

// Audit is one entry of the append-mostly change trail. Only the status and
// notice flags mutate after creation; rows leave the table through
// retention-based cleanup alone.
type Audit struct {
	ID             uint   `gorm:"primarykey"`
	Reference      string `gorm:"uniqueIndex"`
	DomainName     string `gorm:"index"`
	ChangeType     string
	Actor          string
	OldZone        string `gorm:"type:text"`
	NewZone        string `gorm:"type:text"`
	Status         string
	PreNoticeSent  bool
	PostNoticeSent bool
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Notification channels.
const (
	ChannelEmail   = "EMAIL"
	ChannelSMS     = "SMS"
	ChannelWebhook = "WEBHOOK"
)

// Notification is one queued delivery. Eligible for dispatch iff DeliveredAt
// is null, Attempt < MaxAttempts and NextAttemptAt <= now. Never deleted by
// delivery logic; rows are retained for audit.
type Notification struct {
	ID            uint   `gorm:"primarykey"`
	AuditRef      string `gorm:"index"`
	Type          string
	Channel       string
	Recipient     string
	Payload       string `gorm:"type:text"`
	Attempt       int
	MaxAttempts   int
	NextAttemptAt time.Time `gorm:"index"`
	DeliveredAt   *time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// QueueStats summarizes the notification queue for operators.
type QueueStats struct {
	Pending   int64 `json:"pending"`
	Delivered int64 `json:"delivered"`
	Exhausted int64 `json:"exhausted"`
}
