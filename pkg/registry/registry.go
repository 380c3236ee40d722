// Package registry maps domain, contact and host business operations onto
// EPP command sequences.
package registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/grlabs/grepp/pkg/db"
	"github.com/grlabs/grepp/pkg/epp"
	"github.com/grlabs/grepp/pkg/rand"
	"github.com/sirupsen/logrus"
)

// StatusTransferLock is the EPP status code toggled by the registrar lock
// operations.
const StatusTransferLock = "clientTransferProhibited"

const (
	maxNameservers = 5
	authPassLength = 12
)

// ErrNameserversRemoved is returned when a set-nameservers call removed the
// old delegation but failed to add the new one. The domain is live with zero
// nameservers; callers should retry the add rather than the whole update.
var ErrNameserversRemoved = errors.New("nameservers removed but new set not added")

// Executor runs one EPP command. Satisfied by *epp.Client; tests substitute
// a scripted fake.
type Executor interface {
	Execute(cmd epp.Command) (*epp.Result, error)
}

// DefaultContact is the configured contact identity used for the admin, tech
// and billing roles of new registrations. A zero value means the registrant
// contact is reused for all three roles.
type DefaultContact struct {
	Name        string `yaml:"name"`
	Org         string `yaml:"org"`
	Street      string `yaml:"street"`
	City        string `yaml:"city"`
	State       string `yaml:"state"`
	PostalCode  string `yaml:"postal_code"`
	CountryCode string `yaml:"country_code"`
	Voice       string `yaml:"voice"`
	Email       string `yaml:"email"`
}

func (c DefaultContact) configured() bool {
	return c.Name != "" && c.Email != ""
}

// RegistrantInfo is the registrant identity supplied by callers of Register.
type RegistrantInfo struct {
	Name        string
	Org         string
	Street      string
	City        string
	State       string
	PostalCode  string
	CountryCode string
	Voice       string
	Email       string
}

// RegistrationResult reports the objects created by a successful Register.
type RegistrationResult struct {
	Domain       string
	RegistrantID string
	ContactIDs   map[string]string
	AuthPassword string
	Pending      bool
}

// Operations is the registry operations layer. One Operations per session;
// the underlying executor is serial.
type Operations struct {
	epp         Executor
	registrarID string
	defaults    DefaultContact
	log         *logrus.Entry
}

func New(executor Executor, registrarID string, defaults DefaultContact) *Operations {
	return &Operations{
		epp:         executor,
		registrarID: registrarID,
		defaults:    defaults,
		log:         logrus.WithField("component", "registry"),
	}
}

// TestConnection probes the registry with a login. Used by setup validation
// before any credentials are persisted.
func (o *Operations) TestConnection(username, password string) error {
	if _, err := o.epp.Execute(epp.Login{Username: username, Password: password}); err != nil {
		return fmt.Errorf("registry login failed: %w", err)
	}
	_, _ = o.epp.Execute(epp.Logout{})
	return nil
}

// CheckDomain reports whether the domain is available for registration.
func (o *Operations) CheckDomain(domain string) (bool, error) {
	domain = SanitizeDomain(domain)
	res, err := o.epp.Execute(epp.DomainCheck{Domains: []string{domain}})
	if err != nil {
		return false, err
	}
	if len(res.Checks) == 0 {
		return false, fmt.Errorf("registry returned no availability entry for %s", domain)
	}
	return res.Checks[0].Available, nil
}

// Register performs the full registration sequence: registrant contact,
// role contacts, then domain-create. Any step failing aborts with that
// step's error; contacts already created are not rolled back, the registry
// garbage-collects unlinked contacts on its own schedule.
func (o *Operations) Register(domain string, years int, nameservers []string, registrant RegistrantInfo) (*RegistrationResult, error) {
	domain = SanitizeDomain(domain)
	if registrant.Name == "" || registrant.Email == "" {
		return nil, errors.New("registrant name and email are required")
	}
	if years < 2 {
		years = 2
	}
	if len(nameservers) > maxNameservers {
		nameservers = nameservers[:maxNameservers]
	}

	registrantID := fmt.Sprintf("%s_%s", o.registrarID, rand.StringWithSmall(8))

	res, err := o.epp.Execute(epp.ContactCheck{IDs: []string{registrantID}})
	if err != nil {
		return nil, fmt.Errorf("checking registrant contact id: %w", err)
	}
	if len(res.Checks) == 0 || !res.Checks[0].Available {
		return nil, fmt.Errorf("generated contact id %s is not available at the registry", registrantID)
	}

	if err := o.createContact(registrantID, registrant.Name, registrant.Org, registrant.Street,
		registrant.City, registrant.State, registrant.PostalCode, registrant.CountryCode,
		registrant.Voice, registrant.Email); err != nil {
		return nil, fmt.Errorf("creating registrant contact: %w", err)
	}

	contacts := map[string]string{
		"admin":   registrantID,
		"tech":    registrantID,
		"billing": registrantID,
	}
	if o.defaults.configured() {
		for _, role := range []string{"admin", "tech", "billing"} {
			id := fmt.Sprintf("%s_%s", o.registrarID, rand.StringWithSmall(8))
			if err := o.createContact(id, o.defaults.Name, o.defaults.Org, o.defaults.Street,
				o.defaults.City, o.defaults.State, o.defaults.PostalCode, o.defaults.CountryCode,
				o.defaults.Voice, o.defaults.Email); err != nil {
				return nil, fmt.Errorf("creating %s contact: %w", role, err)
			}
			contacts[role] = id
		}
	}

	password := rand.Password(authPassLength)
	refs := make([]epp.ContactRef, 0, len(contacts))
	for _, role := range []string{"admin", "tech", "billing"} {
		refs = append(refs, epp.ContactRef{Type: role, ID: contacts[role]})
	}

	createRes, err := o.epp.Execute(epp.DomainCreate{
		Domain:      domain,
		Years:       years,
		Nameservers: nameservers,
		Registrant:  registrantID,
		Contacts:    refs,
		Password:    password,
	})
	if err != nil {
		return nil, fmt.Errorf("creating domain %s: %w", domain, err)
	}

	o.log.WithFields(logrus.Fields{
		"domain":  domain,
		"years":   years,
		"pending": createRes.Code == epp.CodePending,
	}).Info("domain registered")

	return &RegistrationResult{
		Domain:       domain,
		RegistrantID: registrantID,
		ContactIDs:   contacts,
		AuthPassword: password,
		Pending:      createRes.Code == epp.CodePending,
	}, nil
}

func (o *Operations) createContact(id, name, org, street, city, state, postal, country, voice, email string) error {
	_, err := o.epp.Execute(epp.ContactCreate{
		ID: id,
		PostalInfo: epp.PostalInfo{
			Name:          name,
			Org:           org,
			Street:        []string{street},
			City:          city,
			StateProvince: state,
			PostalCode:    postal,
			CountryCode:   country,
		},
		Voice:    voice,
		Email:    email,
		Password: rand.Password(authPassLength),
	})
	return err
}

// Renew extends the registration. The registry requires the current expiry
// date as an optimistic concurrency token, so a domain-info round trip
// always precedes the renew.
func (o *Operations) Renew(domain string, years int) (string, error) {
	domain = SanitizeDomain(domain)
	info, err := o.DomainInfo(domain)
	if err != nil {
		return "", fmt.Errorf("fetching current expiry: %w", err)
	}
	if info.Expires == "" {
		return "", fmt.Errorf("registry returned no expiry date for %s", domain)
	}

	curExpDate := info.Expires
	if len(curExpDate) > 10 {
		curExpDate = curExpDate[:10]
	}

	res, err := o.epp.Execute(epp.DomainRenew{
		Domain:     domain,
		CurExpDate: curExpDate,
		Years:      years,
	})
	if err != nil {
		return "", err
	}

	newExpiry := ""
	if res.Domain != nil {
		newExpiry = res.Domain.Expires
	}
	o.log.WithFields(logrus.Fields{"domain": domain, "expires": newExpiry}).Info("domain renewed")
	return newExpiry, nil
}

// Transfer submits a transfer request. Completion is asynchronous at the
// registry; this call does not poll for it.
func (o *Operations) Transfer(domain, authCode string, years int) error {
	domain = SanitizeDomain(domain)
	if authCode == "" {
		return errors.New("transfer authorization code is required")
	}
	_, err := o.epp.Execute(epp.DomainTransfer{Domain: domain, Years: years, AuthCode: authCode})
	if err != nil {
		return err
	}
	o.log.WithField("domain", domain).Info("transfer requested")
	return nil
}

// DomainInfo fetches the registry's current view of the domain.
func (o *Operations) DomainInfo(domain string) (*epp.DomainData, error) {
	domain = SanitizeDomain(domain)
	res, err := o.epp.Execute(epp.DomainInfo{Domain: domain})
	if err != nil {
		return nil, err
	}
	if res.Domain == nil {
		return nil, fmt.Errorf("registry returned no domain data for %s", domain)
	}
	return res.Domain, nil
}

// GetNameServers returns the current delegation.
func (o *Operations) GetNameServers(domain string) ([]string, error) {
	info, err := o.DomainInfo(domain)
	if err != nil {
		return nil, err
	}
	return info.Nameservers, nil
}

// SetNameServers replaces the delegation wholesale: the current set is
// removed, then the new set added. The two phases are separate registry
// calls; when the add fails after the remove succeeded the returned error
// wraps ErrNameserversRemoved so callers can retry just the add.
func (o *Operations) SetNameServers(domain string, nameservers []string) error {
	domain = SanitizeDomain(domain)
	if len(nameservers) == 0 {
		return errors.New("at least one nameserver is required")
	}
	if len(nameservers) > maxNameservers {
		nameservers = nameservers[:maxNameservers]
	}

	current, err := o.GetNameServers(domain)
	if err != nil {
		return fmt.Errorf("fetching current nameservers: %w", err)
	}

	if len(current) > 0 {
		if _, err := o.epp.Execute(epp.DomainUpdate{
			Domain: domain,
			Rem:    epp.UpdateSet{Nameservers: current},
		}); err != nil {
			return fmt.Errorf("removing current nameservers: %w", err)
		}
	}

	if _, err := o.epp.Execute(epp.DomainUpdate{
		Domain: domain,
		Add:    epp.UpdateSet{Nameservers: nameservers},
	}); err != nil {
		if len(current) > 0 {
			return fmt.Errorf("%w: %v", ErrNameserversRemoved, err)
		}
		return fmt.Errorf("adding nameservers: %w", err)
	}

	o.log.WithFields(logrus.Fields{"domain": domain, "nameservers": nameservers}).Info("nameservers updated")
	return nil
}

// GetContacts returns the contact data for every role linked to the domain,
// keyed by role, with "registrant" included.
func (o *Operations) GetContacts(domain string) (map[string]*epp.ContactData, error) {
	info, err := o.DomainInfo(domain)
	if err != nil {
		return nil, err
	}

	ids := map[string]string{}
	if info.Registrant != "" {
		ids["registrant"] = info.Registrant
	}
	for role, id := range info.Contacts {
		ids[role] = id
	}

	out := make(map[string]*epp.ContactData, len(ids))
	for role, id := range ids {
		res, err := o.epp.Execute(epp.ContactInfo{ID: id})
		if err != nil {
			return nil, fmt.Errorf("fetching %s contact %s: %w", role, id, err)
		}
		out[role] = res.Contact
	}
	return out, nil
}

// UpdateRegistrant updates the registrant contact's mutable fields in place.
// The registry does not allow swapping the registrant object on .gr domains;
// changes of holder go through the transfer process instead.
func (o *Operations) UpdateRegistrant(domain string, chg epp.ContactChange) error {
	info, err := o.DomainInfo(domain)
	if err != nil {
		return err
	}
	if info.Registrant == "" {
		return fmt.Errorf("domain %s has no registrant contact", domain)
	}
	_, err = o.epp.Execute(epp.ContactUpdate{ID: info.Registrant, Chg: &chg})
	return err
}

// IssueTransferToken asks the registry to mint a DACOR transfer token for
// the domain. The token is time-limited by the registry.
func (o *Operations) IssueTransferToken(domain string) (string, error) {
	domain = SanitizeDomain(domain)
	res, err := o.epp.Execute(epp.DacorIssueToken{Domain: domain})
	if err != nil {
		return "", err
	}
	if res.Extension.DacorToken == "" {
		return "", fmt.Errorf("registry returned no transfer token for %s", domain)
	}
	return res.Extension.DacorToken, nil
}

// RecallApplication withdraws a registration application inside the
// registry's grace window. The protocol id comes from domain-info; its
// absence means the window has closed.
func (o *Operations) RecallApplication(domain string) error {
	domain = SanitizeDomain(domain)
	res, err := o.epp.Execute(epp.DomainInfo{Domain: domain})
	if err != nil {
		return err
	}
	if res.Extension.Protocol == "" {
		return fmt.Errorf("recall unavailable for %s: the registration is outside the registry's grace window", domain)
	}

	_, err = o.epp.Execute(epp.DomainRecallApplication{
		Domain:   domain,
		Protocol: res.Extension.Protocol,
	})
	if err != nil {
		return err
	}
	o.log.WithField("domain", domain).Info("registration application recalled")
	return nil
}

// RequestDelete deletes the domain at the registry.
func (o *Operations) RequestDelete(domain string) error {
	domain = SanitizeDomain(domain)
	_, err := o.epp.Execute(epp.DomainDelete{Domain: domain})
	return err
}

// RegistrarLock reads the transfer lock state straight off the registry;
// lock state is never cached locally.
func (o *Operations) RegistrarLock(domain string) (bool, error) {
	info, err := o.DomainInfo(domain)
	if err != nil {
		return false, err
	}
	return info.HasStatus(StatusTransferLock), nil
}

// SetRegistrarLock toggles the transfer lock. A no-op when the registry
// already reflects the requested state.
func (o *Operations) SetRegistrarLock(domain string, locked bool) error {
	domain = SanitizeDomain(domain)
	current, err := o.RegistrarLock(domain)
	if err != nil {
		return err
	}
	if current == locked {
		return nil
	}

	update := epp.DomainUpdate{Domain: domain}
	if locked {
		update.Add = epp.UpdateSet{Statuses: []string{StatusTransferLock}}
	} else {
		update.Rem = epp.UpdateSet{Statuses: []string{StatusTransferLock}}
	}
	_, err = o.epp.Execute(update)
	return err
}

// RegisterNameserver creates a glue-record host object. At least one IP is
// required: a glue host without addresses is undelegatable.
func (o *Operations) RegisterNameserver(host string, ipv4, ipv6 []string) error {
	host = SanitizeDomain(host)
	if len(ipv4) == 0 && len(ipv6) == 0 {
		return errors.New("at least one IP address is required for a nameserver host")
	}

	res, err := o.epp.Execute(epp.HostCheck{Hosts: []string{host}})
	if err != nil {
		return fmt.Errorf("checking host availability: %w", err)
	}
	if len(res.Checks) == 0 || !res.Checks[0].Available {
		return fmt.Errorf("host %s already exists at the registry", host)
	}

	_, err = o.epp.Execute(epp.HostCreate{Host: host, IPv4: ipv4, IPv6: ipv6})
	return err
}

// ModifyNameserver replaces a glue host's addresses: info to learn the
// current set, then rem old and add new in one host-update.
func (o *Operations) ModifyNameserver(host string, ipv4, ipv6 []string) error {
	host = SanitizeDomain(host)
	if len(ipv4) == 0 && len(ipv6) == 0 {
		return errors.New("at least one IP address is required for a nameserver host")
	}

	res, err := o.epp.Execute(epp.HostInfo{Host: host})
	if err != nil {
		return fmt.Errorf("fetching host %s: %w", host, err)
	}

	var oldV4, oldV6 []string
	if res.Host != nil {
		for _, addr := range res.Host.Addresses {
			if isIPv6(addr) {
				oldV6 = append(oldV6, addr)
			} else {
				oldV4 = append(oldV4, addr)
			}
		}
	}

	_, err = o.epp.Execute(epp.HostUpdate{
		Host: host,
		Add:  epp.HostAddrs{IPv4: ipv4, IPv6: ipv6},
		Rem:  epp.HostAddrs{IPv4: oldV4, IPv6: oldV6},
	})
	return err
}

// DeleteNameserver removes a glue host object.
func (o *Operations) DeleteNameserver(host string) error {
	host = SanitizeDomain(host)
	_, err := o.epp.Execute(epp.HostDelete{Host: host})
	return err
}

func isIPv6(addr string) bool {
	for _, r := range addr {
		if r == ':' {
			return true
		}
	}
	return false
}

// SyncDomain queries the registry and maps the answer onto local metadata:
// expiry, registration date, pending-delete, and the expired and
// transferred-away terminal states from the registry's error codes.
func (o *Operations) SyncDomain(d *db.Domain) (bool, error) {
	info, err := o.DomainInfo(d.Name)
	if err != nil {
		switch {
		case epp.IsNotFound(err):
			d.Status = db.StatusExpired
			return true, nil
		case epp.IsAuthorization(err):
			d.Status = db.StatusTransferredAway
			return true, nil
		}
		return false, err
	}

	changed := false
	if expires, ok := parseRegistryDate(info.Expires); ok && !expires.Equal(d.Expires) {
		d.Expires = expires
		changed = true
	}
	if registered, ok := parseRegistryDate(info.Created); ok && !registered.Equal(d.Registered) {
		d.Registered = registered
		changed = true
	}
	if pending := info.HasStatus("pendingDelete"); pending != d.PendingDelete {
		d.PendingDelete = pending
		changed = true
	}
	if d.Status != db.StatusActive && !d.PendingDelete {
		d.Status = db.StatusActive
		changed = true
	}

	d.LastSynced = time.Now()
	return changed, nil
}

// parseRegistryDate handles both the registry's date-only and full timestamp
// forms.
func parseRegistryDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
