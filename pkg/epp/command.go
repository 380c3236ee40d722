// Package epp implements the EPP 1.0 wire codec and session client used to
// talk to the .gr registry proxy (XML over HTTPS).
package epp

// Command is the closed set of EPP commands the registry supports. Each
// variant carries only the fields its XML schema requires and knows how to
// render its own command body.
type Command interface {
	// successCodes lists the EPP result codes that mean success for this
	// command. Most commands expect only 1000 "ok"; creates additionally
	// accept 1001 "ok, action pending" from the registry's pipeline.
	successCodes() []int

	encodeBody(w *xmlWriter)
}

// ContactRef associates a contact id with a domain role (admin, tech,
// billing).
type ContactRef struct {
	Type string
	ID   string
}

// UpdateSet holds the add or rem half of a domain-update.
type UpdateSet struct {
	Nameservers []string
	Contacts    []ContactRef
	Statuses    []string
}

func (s UpdateSet) empty() bool {
	return len(s.Nameservers) == 0 && len(s.Contacts) == 0 && len(s.Statuses) == 0
}

// PostalInfo is the loc-type postal block of a contact.
type PostalInfo struct {
	Name          string
	Org           string
	Street        []string
	City          string
	StateProvince string
	PostalCode    string
	CountryCode   string
}

// ContactChange is the chg block of a contact-update. Zero-valued fields are
// omitted from the document.
type ContactChange struct {
	Name  string
	Org   string
	Addr  *Addr
	Voice string
	Email string
}

// Addr is a postal address replacement inside a contact-update chg block.
type Addr struct {
	Street        []string
	City          string
	StateProvince string
	PostalCode    string
	CountryCode   string
}

type Login struct {
	Username string
	Password string
}

type Logout struct{}

type DomainCheck struct {
	Domains []string
}

type DomainInfo struct {
	Domain string
}

type DomainCreate struct {
	Domain      string
	Years       int
	Nameservers []string
	Registrant  string
	Contacts    []ContactRef
	Password    string
}

type DomainRenew struct {
	Domain string
	// CurExpDate is the registry's optimistic concurrency token: the renew
	// is rejected unless it matches the current expiry (YYYY-MM-DD).
	CurExpDate string
	Years      int
}

type DomainTransfer struct {
	Domain   string
	Years    int
	AuthCode string
}

type DomainUpdate struct {
	Domain string
	Add    UpdateSet
	Rem    UpdateSet
}

type DomainDelete struct {
	Domain string
}

type ContactCheck struct {
	IDs []string
}

type ContactInfo struct {
	ID string
}

type ContactCreate struct {
	ID         string
	PostalInfo PostalInfo
	Voice      string
	Email      string
	Password   string
}

type ContactUpdate struct {
	ID  string
	Chg *ContactChange
}

type HostCheck struct {
	Hosts []string
}

type HostCreate struct {
	Host string
	IPv4 []string
	IPv6 []string
}

type HostInfo struct {
	Host string
}

// HostAddrs holds the add or rem half of a host-update.
type HostAddrs struct {
	IPv4 []string
	IPv6 []string
}

type HostUpdate struct {
	Host string
	Add  HostAddrs
	Rem  HostAddrs
}

type HostDelete struct {
	Host string
}

// DacorIssueToken is a domain-info carrying the gr-domain extension that asks
// the registry to mint a time-limited transfer authorization token.
type DacorIssueToken struct {
	Domain string
}

// DomainRecallApplication withdraws a registration application inside the
// registry's grace window. Protocol is the id returned by a prior
// domain-info on the same domain.
type DomainRecallApplication struct {
	Domain   string
	Protocol string
}

var (
	okOnly    = []int{CodeOK}
	okPending = []int{CodeOK, CodePending}
)

func (Login) successCodes() []int                   { return okOnly }
func (Logout) successCodes() []int                  { return []int{CodeLogoutOK, CodeOK} }
func (DomainCheck) successCodes() []int             { return okOnly }
func (DomainInfo) successCodes() []int              { return okOnly }
func (DomainCreate) successCodes() []int            { return okPending }
func (DomainRenew) successCodes() []int             { return okOnly }
func (DomainTransfer) successCodes() []int          { return okOnly }
func (DomainUpdate) successCodes() []int            { return okOnly }
func (DomainDelete) successCodes() []int            { return okOnly }
func (ContactCheck) successCodes() []int            { return okOnly }
func (ContactInfo) successCodes() []int             { return okOnly }
func (ContactCreate) successCodes() []int           { return okOnly }
func (ContactUpdate) successCodes() []int           { return okOnly }
func (HostCheck) successCodes() []int               { return okOnly }
func (HostCreate) successCodes() []int              { return okPending }
func (HostInfo) successCodes() []int                { return okOnly }
func (HostUpdate) successCodes() []int              { return okOnly }
func (HostDelete) successCodes() []int              { return okOnly }
func (DacorIssueToken) successCodes() []int         { return okOnly }
func (DomainRecallApplication) successCodes() []int { return okOnly }
