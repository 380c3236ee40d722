// Package backend ties the store, registry operations, audit trail and
// notification queue together behind the interface the API server consumes.
package backend

import (
	"strings"
	"time"

	"github.com/grlabs/grepp/pkg/audit"
	"github.com/grlabs/grepp/pkg/db"
	"github.com/grlabs/grepp/pkg/epp"
	"github.com/grlabs/grepp/pkg/model"
	"github.com/grlabs/grepp/pkg/notify"
	"github.com/grlabs/grepp/pkg/registry"
	"github.com/sirupsen/logrus"
)

type Backend interface {
	CheckDomain(domain string) (model.CheckResponse, error)
	Register(domain string, input model.RegisterRequest) (model.RegisterResponse, error)
	Renew(domain string, years int) (model.RenewResponse, error)
	Transfer(domain string, input model.TransferRequest) error
	DomainInfo(domain string) (model.DomainInfoResponse, error)
	GetNameservers(domain string) (model.NameserversResponse, error)
	SetNameservers(domain string, nameservers []string) error
	RegistrarLock(domain string) (model.LockResponse, error)
	SetRegistrarLock(domain string, locked bool) error
	IssueTransferToken(domain string) (model.TransferTokenResponse, error)
	RecallApplication(domain string) error
	RequestDelete(domain string) error
	Contacts(domain string) (map[string]model.ContactResponse, error)
	UpdateRegistrant(domain string, input model.RegistrantUpdateRequest) error
	RegisterHost(host string, input model.HostRequest) error
	ModifyHost(host string, input model.HostRequest) error
	DeleteHost(host string) error
	AuditTrail(domain string, limit int) ([]db.Audit, error)
	QueueStats() (db.QueueStats, error)
	TokenHash() string
	StartDispatcherDaemon(done <-chan struct{})
}

// Options configure the orchestrator beyond its collaborators.
type Options struct {
	// APITokenHash is the bcrypt hash bearer tokens are verified against.
	APITokenHash string

	// DispatchInterval is how often the daemon drains the queue.
	DispatchInterval time.Duration

	// DispatchBatchSize bounds one drain.
	DispatchBatchSize int

	// AuditRetention bounds the age of audit rows; zero applies the
	// default.
	AuditRetention time.Duration
}

type backend struct {
	db    db.Database
	reg   *registry.Operations
	queue *notify.Queue
	audit *audit.Logger
	opts  Options

	lastCleanup time.Time
	log         *logrus.Entry
}

func NewBackend(database db.Database, reg *registry.Operations, queue *notify.Queue, auditLog *audit.Logger, opts Options) (Backend, error) {
	if opts.DispatchInterval <= 0 {
		opts.DispatchInterval = time.Minute
	}
	if opts.DispatchBatchSize <= 0 {
		opts.DispatchBatchSize = 50
	}
	return &backend{
		db:    database,
		reg:   reg,
		queue: queue,
		audit: auditLog,
		opts:  opts,
		log:   logrus.WithField("component", "backend"),
	}, nil
}

func (b *backend) TokenHash() string {
	return b.opts.APITokenHash
}

func (b *backend) CheckDomain(domain string) (model.CheckResponse, error) {
	available, err := b.reg.CheckDomain(domain)
	if err != nil {
		return model.CheckResponse{}, err
	}
	return model.CheckResponse{
		Domain:    registry.SanitizeDomain(domain),
		Available: available,
	}, nil
}

func (b *backend) Register(domain string, input model.RegisterRequest) (model.RegisterResponse, error) {
	result, err := b.reg.Register(domain, input.Years, input.Nameservers, registry.RegistrantInfo{
		Name:        input.Registrant.Name,
		Org:         input.Registrant.Org,
		Street:      input.Registrant.Street,
		City:        input.Registrant.City,
		State:       input.Registrant.State,
		PostalCode:  input.Registrant.PostalCode,
		CountryCode: input.Registrant.CountryCode,
		Voice:       input.Registrant.Voice,
		Email:       input.Registrant.Email,
	})
	if err != nil {
		return model.RegisterResponse{}, err
	}

	status := db.StatusActive
	if result.Pending {
		status = db.StatusPending
	}
	if err := b.db.UpsertDomain(&db.Domain{
		Name:       result.Domain,
		Status:     status,
		OwnerEmail: input.Registrant.Email,
		Registered: time.Now(),
	}); err != nil {
		b.log.WithError(err).WithField("domain", result.Domain).Error("registered at registry but local tracking failed")
	}

	return model.RegisterResponse{
		Domain:       result.Domain,
		RegistrantID: result.RegistrantID,
		ContactIDs:   result.ContactIDs,
		Pending:      result.Pending,
	}, nil
}

func (b *backend) Renew(domain string, years int) (model.RenewResponse, error) {
	expires, err := b.reg.Renew(domain, years)
	if err != nil {
		return model.RenewResponse{}, err
	}
	return model.RenewResponse{
		Domain:  registry.SanitizeDomain(domain),
		Expires: expires,
	}, nil
}

func (b *backend) Transfer(domain string, input model.TransferRequest) error {
	return b.reg.Transfer(domain, input.AuthCode, input.Years)
}

func (b *backend) DomainInfo(domain string) (model.DomainInfoResponse, error) {
	info, err := b.reg.DomainInfo(domain)
	if err != nil {
		return model.DomainInfoResponse{}, err
	}
	return model.DomainInfoResponse{
		Domain:      info.Name,
		Registrant:  info.Registrant,
		Contacts:    info.Contacts,
		Nameservers: info.Nameservers,
		Statuses:    info.Statuses,
		Created:     info.Created,
		Expires:     info.Expires,
		Updated:     info.Updated,
	}, nil
}

func (b *backend) GetNameservers(domain string) (model.NameserversResponse, error) {
	nameservers, err := b.reg.GetNameServers(domain)
	if err != nil {
		return model.NameserversResponse{}, err
	}
	return model.NameserversResponse{
		Domain:      registry.SanitizeDomain(domain),
		Nameservers: nameservers,
	}, nil
}

// SetNameservers records the change in the audit trail around the registry
// call so a partial failure is still visible in the trail.
func (b *backend) SetNameservers(domain string, nameservers []string) error {
	current, err := b.reg.GetNameServers(domain)
	if err != nil {
		return err
	}

	reference, err := b.audit.LogChange(registry.SanitizeDomain(domain), db.ChangePre, "api",
		joinZone(current), joinZone(nameservers))
	if err != nil {
		return err
	}

	if err := b.reg.SetNameServers(domain, nameservers); err != nil {
		if auditErr := b.audit.UpdateStatus(reference, db.AuditFailed, err.Error()); auditErr != nil {
			b.log.WithError(auditErr).Error("failed to record nameserver update failure")
		}
		return err
	}

	return b.audit.UpdateStatus(reference, db.AuditApplied, "")
}

func (b *backend) RegistrarLock(domain string) (model.LockResponse, error) {
	locked, err := b.reg.RegistrarLock(domain)
	if err != nil {
		return model.LockResponse{}, err
	}
	return model.LockResponse{
		Domain: registry.SanitizeDomain(domain),
		Locked: locked,
	}, nil
}

func (b *backend) SetRegistrarLock(domain string, locked bool) error {
	return b.reg.SetRegistrarLock(domain, locked)
}

func (b *backend) IssueTransferToken(domain string) (model.TransferTokenResponse, error) {
	token, err := b.reg.IssueTransferToken(domain)
	if err != nil {
		return model.TransferTokenResponse{}, err
	}
	return model.TransferTokenResponse{
		Domain: registry.SanitizeDomain(domain),
		Token:  token,
	}, nil
}

func (b *backend) RecallApplication(domain string) error {
	return b.reg.RecallApplication(domain)
}

func (b *backend) RequestDelete(domain string) error {
	return b.reg.RequestDelete(domain)
}

func (b *backend) Contacts(domain string) (map[string]model.ContactResponse, error) {
	contacts, err := b.reg.GetContacts(domain)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.ContactResponse, len(contacts))
	for role, c := range contacts {
		if c == nil {
			continue
		}
		out[role] = model.ContactResponse{
			ID:          c.ID,
			Name:        c.Name,
			Org:         c.Org,
			Street:      c.Street,
			City:        c.City,
			State:       c.StateProvince,
			PostalCode:  c.PostalCode,
			CountryCode: c.CountryCode,
			Voice:       c.Voice,
			Email:       c.Email,
		}
	}
	return out, nil
}

func (b *backend) UpdateRegistrant(domain string, input model.RegistrantUpdateRequest) error {
	chg := epp.ContactChange{
		Name:  input.Name,
		Org:   input.Org,
		Voice: input.Voice,
		Email: input.Email,
	}
	if len(input.Street) > 0 || input.City != "" || input.PostalCode != "" || input.CountryCode != "" {
		chg.Addr = &epp.Addr{
			Street:        input.Street,
			City:          input.City,
			StateProvince: input.State,
			PostalCode:    input.PostalCode,
			CountryCode:   input.CountryCode,
		}
	}
	return b.reg.UpdateRegistrant(domain, chg)
}

func (b *backend) RegisterHost(host string, input model.HostRequest) error {
	return b.reg.RegisterNameserver(host, input.IPv4, input.IPv6)
}

func (b *backend) ModifyHost(host string, input model.HostRequest) error {
	return b.reg.ModifyNameserver(host, input.IPv4, input.IPv6)
}

func (b *backend) DeleteHost(host string) error {
	return b.reg.DeleteNameserver(host)
}

func (b *backend) AuditTrail(domain string, limit int) ([]db.Audit, error) {
	return b.audit.Trail(registry.SanitizeDomain(domain), limit)
}

func (b *backend) QueueStats() (db.QueueStats, error) {
	return b.db.QueueStats()
}

func joinZone(nameservers []string) string {
	return strings.Join(nameservers, ", ")
}
