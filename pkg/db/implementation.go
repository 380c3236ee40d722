package db

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type database struct {
	db *gorm.DB
}

// New creates a new database connection
func New(ctx context.Context, dialect string, dsn string, config *gorm.Config) (Database, error) {
	if config == nil {
		config = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	}

	var db *gorm.DB
	var err error

	if dialect == "sqlite" {
		db, err = gorm.Open(sqlite.Open(dsn), config)
		db.Exec("PRAGMA foreign_keys = ON")
	} else if dialect == "mysql" {
		db, err = gorm.Open(mysql.Open(dsn), config)
	} else {
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	db = db.WithContext(ctx)

	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&Domain{},
		&Snapshot{},
		&Audit{},
		&Notification{},
	); err != nil {
		return nil, err
	}

	d := &database{
		db: db,
	}
	return d, nil
}

func (d *database) GetDomain(name string) (Domain, error) {
	domain := Domain{}
	sql := d.db.Where("name = ?", name).Limit(1).Find(&domain)
	return domain, sql.Error
}

func (d *database) UpsertDomain(domain *Domain) error {
	existing := Domain{}
	sql := d.db.Where("name = ?", domain.Name).Limit(1).Find(&existing)
	if sql.Error != nil {
		return sql.Error
	}
	if existing.ID != 0 {
		domain.ID = existing.ID
		domain.CreatedAt = existing.CreatedAt
		return d.db.Save(domain).Error
	}
	return d.db.Create(domain).Error
}

func (d *database) ListTrackedDomains(suffixes []string) ([]Domain, error) {
	var domains []Domain
	tx := d.db.Where("status IN ?", []string{StatusActive, StatusPending, StatusSuspended})
	if len(suffixes) > 0 {
		like := d.db
		for i, suffix := range suffixes {
			cond := "name LIKE ?"
			if i == 0 {
				like = d.db.Where(cond, "%."+suffix)
			} else {
				like = like.Or(cond, "%."+suffix)
			}
		}
		tx = tx.Where(like)
	}
	sql := tx.Order("expires ASC").Find(&domains)
	return domains, sql.Error
}

func (d *database) ListAlertDomains() ([]Domain, error) {
	var domains []Domain
	sql := d.db.Where("alerts_enabled = ? and status = ?", true, StatusActive).Find(&domains)
	return domains, sql.Error
}

func (d *database) UpdateDomainFields(id uint, fields map[string]interface{}) error {
	return d.db.Model(&Domain{Model: gorm.Model{ID: id}}).Updates(fields).Error
}

func (d *database) LatestSnapshot(domain string) (Snapshot, error) {
	snap := Snapshot{}
	sql := d.db.Where("domain = ?", domain).Order("created_at DESC, id DESC").Limit(1).Find(&snap)
	return snap, sql.Error
}

func (d *database) SaveSnapshot(domain, records string) error {
	return d.db.Create(&Snapshot{Domain: domain, Records: records}).Error
}

func (d *database) CreateAudit(a *Audit) error {
	return d.db.Create(a).Error
}

func (d *database) UpdateAuditFields(reference string, fields map[string]interface{}) error {
	return d.db.Model(&Audit{}).Where("reference = ?", reference).Updates(fields).Error
}

func (d *database) AuditTrail(domain string, limit int) ([]Audit, error) {
	var audits []Audit
	sql := d.db.Where("domain_name = ?", domain).Order("created_at DESC").Limit(limit).Find(&audits)
	return audits, sql.Error
}

func (d *database) AuditsBetween(from, to time.Time) ([]Audit, error) {
	var audits []Audit
	sql := d.db.Where("created_at BETWEEN ? AND ?", from, to).Order("created_at DESC").Find(&audits)
	return audits, sql.Error
}

func (d *database) PurgeOldAudits(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	sql := d.db.Where("created_at < ?", cutoff).Delete(&Audit{})
	return sql.RowsAffected, sql.Error
}

func (d *database) EnqueueNotification(n *Notification) error {
	return d.db.Create(n).Error
}

func (d *database) DueNotifications(now time.Time, limit int) ([]Notification, error) {
	var items []Notification
	sql := d.db.
		Where("delivered_at IS NULL AND attempt < max_attempts AND next_attempt_at <= ?", now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&items)
	return items, sql.Error
}

func (d *database) MarkDelivered(id uint, now time.Time) error {
	return d.db.Model(&Notification{}).Where("id = ?", id).
		Update("delivered_at", now).Error
}

func (d *database) BumpRetry(id uint, attempt int, lastError string, next time.Time) error {
	return d.db.Model(&Notification{}).Where("id = ?", id).Updates(map[string]interface{}{
		"attempt":         attempt,
		"last_error":      lastError,
		"next_attempt_at": next,
	}).Error
}

func (d *database) QueueStats() (QueueStats, error) {
	var stats QueueStats

	sql := d.db.Model(&Notification{}).
		Where("delivered_at IS NULL AND attempt < max_attempts").
		Count(&stats.Pending)
	if sql.Error != nil {
		return stats, sql.Error
	}

	sql = d.db.Model(&Notification{}).Where("delivered_at IS NOT NULL").Count(&stats.Delivered)
	if sql.Error != nil {
		return stats, sql.Error
	}

	sql = d.db.Model(&Notification{}).
		Where("delivered_at IS NULL AND attempt >= max_attempts").
		Count(&stats.Exhausted)
	return stats, sql.Error
}
