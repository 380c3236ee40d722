package epp

import (
	"errors"
	"fmt"
)

// EPP result codes with defined meaning to this client. All other codes are
// surfaced verbatim through RegistryError.
const (
	CodeOK       = 1000
	CodePending  = 1001
	CodeLogoutOK = 1500

	// CodeObjectNotFound on a domain query means the domain is no longer
	// held (expired).
	CodeObjectNotFound = 2303

	// CodeAuthorization on a domain query means the domain was likely
	// transferred away from this registrar.
	CodeAuthorization = 2201
)

// Result is a decoded EPP response. Exactly one of the data fields is set
// when the response carries a resData payload; callers switch on whichever
// is non-nil instead of probing a generic map.
type Result struct {
	Code    int
	Message string
	Success bool

	Domain  *DomainData
	Contact *ContactData
	Host    *HostData
	Checks  []CheckResult

	Extension ExtensionData
}

// DomainData is the payload of a domain-info response. Optional elements the
// registry omitted decode to zero values.
type DomainData struct {
	Name        string
	ROID        string
	Registrant  string
	Contacts    map[string]string
	Nameservers []string
	Statuses    []string
	Created     string
	Expires     string
	Updated     string
	Password    string
}

// HasStatus reports whether the domain carries the given EPP status code.
func (d *DomainData) HasStatus(status string) bool {
	for _, s := range d.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// ContactData is the payload of a contact-info response.
type ContactData struct {
	ID            string
	Email         string
	Voice         string
	Name          string
	Org           string
	Street        []string
	City          string
	StateProvince string
	PostalCode    string
	CountryCode   string
}

// HostData is the payload of a host-info response.
type HostData struct {
	Name      string
	Addresses []string
	Created   string
	Updated   string
}

// CheckResult is one entry of a domain/contact/host check response.
type CheckResult struct {
	ID        string
	Available bool
}

// ExtensionData carries the registry's vendor extension fields.
type ExtensionData struct {
	// DacorToken is the transfer authorization token minted by a
	// dacor-issue-token exchange. Time-limited by the registry; not
	// enforced locally.
	DacorToken string

	// Protocol is the application protocol id reported on domain-info,
	// present only while the domain is inside the recall grace window.
	Protocol string
}

// TransportError covers connection, timeout, TLS and non-2xx HTTP failures.
// It always maps to result code 0 and is always retryable.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("registry transport: HTTP %d", e.Status)
	}
	return fmt.Sprintf("registry transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RegistryError is a protocol-level failure: the registry answered with a
// result code outside the command's success set.
type RegistryError struct {
	Code    int
	Message string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry error %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is the registry's object-does-not-exist
// error (domain no longer held).
func IsNotFound(err error) bool {
	var re *RegistryError
	return errors.As(err, &re) && re.Code == CodeObjectNotFound
}

// IsAuthorization reports whether err is the registry's authorization error
// (domain likely transferred away).
func IsAuthorization(err error) bool {
	var re *RegistryError
	return errors.As(err, &re) && re.Code == CodeAuthorization
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
