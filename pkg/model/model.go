// Package model holds the admin API request and response shapes.
package model

type ErrorResponse struct {
	Status  int         `json:"status,omitempty"`
	Message string      `json:"msg,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type CheckResponse struct {
	Domain    string `json:"domain"`
	Available bool   `json:"available"`
}

type RegistrantRequest struct {
	Name        string `json:"name"`
	Org         string `json:"org,omitempty"`
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	Voice       string `json:"voice,omitempty"`
	Email       string `json:"email"`
}

type RegisterRequest struct {
	Years       int               `json:"years,omitempty"`
	Nameservers []string          `json:"nameservers,omitempty"`
	Registrant  RegistrantRequest `json:"registrant"`
}

type RegisterResponse struct {
	Domain       string            `json:"domain"`
	RegistrantID string            `json:"registrantId"`
	ContactIDs   map[string]string `json:"contactIds"`
	Pending      bool              `json:"pending"`
}

type RenewRequest struct {
	Years int `json:"years"`
}

type RenewResponse struct {
	Domain  string `json:"domain"`
	Expires string `json:"expires,omitempty"`
}

type TransferRequest struct {
	AuthCode string `json:"authCode"`
	Years    int    `json:"years,omitempty"`
}

type DomainInfoResponse struct {
	Domain      string            `json:"domain"`
	Registrant  string            `json:"registrant,omitempty"`
	Contacts    map[string]string `json:"contacts,omitempty"`
	Nameservers []string          `json:"nameservers,omitempty"`
	Statuses    []string          `json:"statuses,omitempty"`
	Created     string            `json:"created,omitempty"`
	Expires     string            `json:"expires,omitempty"`
	Updated     string            `json:"updated,omitempty"`
}

type NameserversRequest struct {
	Nameservers []string `json:"nameservers"`
}

type NameserversResponse struct {
	Domain      string   `json:"domain"`
	Nameservers []string `json:"nameservers"`
}

type LockRequest struct {
	Locked bool `json:"locked"`
}

type LockResponse struct {
	Domain string `json:"domain"`
	Locked bool   `json:"locked"`
}

type TransferTokenResponse struct {
	Domain string `json:"domain"`
	Token  string `json:"token"`
}

type HostRequest struct {
	IPv4 []string `json:"ipv4,omitempty"`
	IPv6 []string `json:"ipv6,omitempty"`
}

type ContactResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Org         string   `json:"org,omitempty"`
	Street      []string `json:"street,omitempty"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	PostalCode  string   `json:"postalCode,omitempty"`
	CountryCode string   `json:"countryCode,omitempty"`
	Voice       string   `json:"voice,omitempty"`
	Email       string   `json:"email"`
}

type RegistrantUpdateRequest struct {
	Name        string   `json:"name,omitempty"`
	Org         string   `json:"org,omitempty"`
	Street      []string `json:"street,omitempty"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	PostalCode  string   `json:"postalCode,omitempty"`
	CountryCode string   `json:"countryCode,omitempty"`
	Voice       string   `json:"voice,omitempty"`
	Email       string   `json:"email,omitempty"`
}

type StatusResponse struct {
	Domain string `json:"domain,omitempty"`
	Status string `json:"status"`
}
