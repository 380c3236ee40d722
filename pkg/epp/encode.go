package epp

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// XML namespaces of the EPP object schemas and the registry's vendor
// extension.
const (
	NSEpp      = "urn:ietf:params:xml:ns:epp-1.0"
	NSDomain   = "urn:ietf:params:xml:ns:domain-1.0"
	NSContact  = "urn:ietf:params:xml:ns:contact-1.0"
	NSHost     = "urn:ietf:params:xml:ns:host-1.0"
	NSExtGR    = "http://www.ics.forth.gr/gr-domain-ext-1.0"
	NSExtGRHst = "http://www.ics.forth.gr/gr-host-ext-1.0"
)

// xmlWriter builds an EPP document. Element order and namespace prefixes are
// fixed by the registry's schemas, which is why the document is written out
// explicitly instead of going through the struct marshaller.
type xmlWriter struct {
	b strings.Builder
}

func (w *xmlWriter) raw(s string) { w.b.WriteString(s) }

func (w *xmlWriter) open(tag string)  { w.b.WriteString("<" + tag + ">") }
func (w *xmlWriter) close(tag string) { w.b.WriteString("</" + tag + ">") }

// elem writes <tag>escaped text</tag>.
func (w *xmlWriter) elem(tag, text string) {
	w.open(tag)
	w.text(text)
	w.close(tag)
}

func (w *xmlWriter) text(s string) {
	_ = xml.EscapeText(&w.b, []byte(s))
}

func (w *xmlWriter) String() string { return w.b.String() }

// Encode renders the full EPP envelope for cmd with the given client
// transaction id.
func Encode(cmd Command, clTRID string) string {
	w := &xmlWriter{}
	w.raw(`<?xml version="1.0" encoding="UTF-8"?>`)
	w.raw(`<epp xmlns="` + NSEpp + `">`)
	w.open("command")
	cmd.encodeBody(w)
	w.elem("clTRID", clTRID)
	w.close("command")
	w.raw("</epp>")
	return w.String()
}

func (c Login) encodeBody(w *xmlWriter) {
	w.open("login")
	w.elem("clID", c.Username)
	w.elem("pw", c.Password)
	w.open("options")
	w.elem("version", "1.0")
	w.elem("lang", "el")
	w.close("options")
	w.open("svcs")
	w.elem("objURI", NSDomain)
	w.elem("objURI", NSContact)
	w.elem("objURI", NSHost)
	w.close("svcs")
	w.close("login")
}

func (Logout) encodeBody(w *xmlWriter) {
	w.raw("<logout/>")
}

func (c DomainCheck) encodeBody(w *xmlWriter) {
	w.open("check")
	w.raw(`<domain:check xmlns:domain="` + NSDomain + `">`)
	for _, d := range c.Domains {
		w.elem("domain:name", d)
	}
	w.close("domain:check")
	w.close("check")
}

func (c DomainInfo) encodeBody(w *xmlWriter) {
	w.open("info")
	w.raw(`<domain:info xmlns:domain="` + NSDomain + `">`)
	w.elem("domain:name", c.Domain)
	w.close("domain:info")
	w.close("info")
}

func (c DomainCreate) encodeBody(w *xmlWriter) {
	w.open("create")
	w.raw(`<domain:create xmlns:domain="` + NSDomain + `">`)
	w.elem("domain:name", c.Domain)
	w.raw(`<domain:period unit="y">` + strconv.Itoa(c.Years) + `</domain:period>`)
	if len(c.Nameservers) > 0 {
		w.open("domain:ns")
		for _, ns := range c.Nameservers {
			w.elem("domain:hostObj", ns)
		}
		w.close("domain:ns")
	}
	w.elem("domain:registrant", c.Registrant)
	for _, contact := range c.Contacts {
		writeContactRef(w, contact)
	}
	w.open("domain:authInfo")
	w.elem("domain:pw", c.Password)
	w.close("domain:authInfo")
	w.close("domain:create")
	w.close("create")
}

func (c DomainRenew) encodeBody(w *xmlWriter) {
	w.open("renew")
	w.raw(`<domain:renew xmlns:domain="` + NSDomain + `">`)
	w.elem("domain:name", c.Domain)
	w.elem("domain:curExpDate", c.CurExpDate)
	w.raw(`<domain:period unit="y">` + strconv.Itoa(c.Years) + `</domain:period>`)
	w.close("domain:renew")
	w.close("renew")
}

func (c DomainTransfer) encodeBody(w *xmlWriter) {
	w.raw(`<transfer op="request">`)
	w.raw(`<domain:transfer xmlns:domain="` + NSDomain + `">`)
	w.elem("domain:name", c.Domain)
	w.raw(`<domain:period unit="y">` + strconv.Itoa(c.Years) + `</domain:period>`)
	w.open("domain:authInfo")
	w.elem("domain:pw", c.AuthCode)
	w.close("domain:authInfo")
	w.close("domain:transfer")
	w.close("transfer")
}

func (c DomainUpdate) encodeBody(w *xmlWriter) {
	w.open("update")
	w.raw(`<domain:update xmlns:domain="` + NSDomain + `">`)
	w.elem("domain:name", c.Domain)
	if !c.Add.empty() {
		w.open("domain:add")
		writeUpdateSet(w, c.Add)
		w.close("domain:add")
	}
	if !c.Rem.empty() {
		w.open("domain:rem")
		writeUpdateSet(w, c.Rem)
		w.close("domain:rem")
	}
	w.close("domain:update")
	w.close("update")
}

func writeUpdateSet(w *xmlWriter, s UpdateSet) {
	if len(s.Nameservers) > 0 {
		w.open("domain:ns")
		for _, ns := range s.Nameservers {
			w.elem("domain:hostObj", ns)
		}
		w.close("domain:ns")
	}
	for _, contact := range s.Contacts {
		writeContactRef(w, contact)
	}
	for _, status := range s.Statuses {
		w.raw(`<domain:status s="`)
		w.text(status)
		w.raw(`"/>`)
	}
}

func writeContactRef(w *xmlWriter, c ContactRef) {
	w.raw(`<domain:contact type="`)
	w.text(c.Type)
	w.raw(`">`)
	w.text(c.ID)
	w.close("domain:contact")
}

func (c DomainDelete) encodeBody(w *xmlWriter) {
	w.open("delete")
	w.raw(`<domain:delete xmlns:domain="` + NSDomain + `">`)
	w.elem("domain:name", c.Domain)
	w.close("domain:delete")
	w.close("delete")
}

func (c ContactCheck) encodeBody(w *xmlWriter) {
	w.open("check")
	w.raw(`<contact:check xmlns:contact="` + NSContact + `">`)
	for _, id := range c.IDs {
		w.elem("contact:id", id)
	}
	w.close("contact:check")
	w.close("check")
}

func (c ContactInfo) encodeBody(w *xmlWriter) {
	w.open("info")
	w.raw(`<contact:info xmlns:contact="` + NSContact + `">`)
	w.elem("contact:id", c.ID)
	w.close("contact:info")
	w.close("info")
}

func (c ContactCreate) encodeBody(w *xmlWriter) {
	w.open("create")
	w.raw(`<contact:create xmlns:contact="` + NSContact + `">`)
	w.elem("contact:id", c.ID)
	w.raw(`<contact:postalInfo type="loc">`)
	w.elem("contact:name", c.PostalInfo.Name)
	if c.PostalInfo.Org != "" {
		w.elem("contact:org", c.PostalInfo.Org)
	}
	w.open("contact:addr")
	for _, street := range c.PostalInfo.Street {
		w.elem("contact:street", street)
	}
	w.elem("contact:city", c.PostalInfo.City)
	if c.PostalInfo.StateProvince != "" {
		w.elem("contact:sp", c.PostalInfo.StateProvince)
	}
	w.elem("contact:pc", c.PostalInfo.PostalCode)
	w.elem("contact:cc", c.PostalInfo.CountryCode)
	w.close("contact:addr")
	w.close("contact:postalInfo")
	if c.Voice != "" {
		w.elem("contact:voice", c.Voice)
	}
	w.elem("contact:email", c.Email)
	w.open("contact:authInfo")
	w.elem("contact:pw", c.Password)
	w.close("contact:authInfo")
	w.close("contact:create")
	w.close("create")
}

func (c ContactUpdate) encodeBody(w *xmlWriter) {
	w.open("update")
	w.raw(`<contact:update xmlns:contact="` + NSContact + `">`)
	w.elem("contact:id", c.ID)
	if c.Chg != nil {
		w.open("contact:chg")
		w.raw(`<contact:postalInfo type="loc">`)
		if c.Chg.Name != "" {
			w.elem("contact:name", c.Chg.Name)
		}
		if c.Chg.Org != "" {
			w.elem("contact:org", c.Chg.Org)
		}
		if c.Chg.Addr != nil {
			w.open("contact:addr")
			for _, street := range c.Chg.Addr.Street {
				w.elem("contact:street", street)
			}
			w.elem("contact:city", c.Chg.Addr.City)
			if c.Chg.Addr.StateProvince != "" {
				w.elem("contact:sp", c.Chg.Addr.StateProvince)
			}
			w.elem("contact:pc", c.Chg.Addr.PostalCode)
			w.elem("contact:cc", c.Chg.Addr.CountryCode)
			w.close("contact:addr")
		}
		w.close("contact:postalInfo")
		if c.Chg.Voice != "" {
			w.elem("contact:voice", c.Chg.Voice)
		}
		if c.Chg.Email != "" {
			w.elem("contact:email", c.Chg.Email)
		}
		w.close("contact:chg")
	}
	w.close("contact:update")
	w.close("update")
}

func (c HostCheck) encodeBody(w *xmlWriter) {
	w.open("check")
	w.raw(`<host:check xmlns:host="` + NSHost + `">`)
	for _, h := range c.Hosts {
		w.elem("host:name", h)
	}
	w.close("host:check")
	w.close("check")
}

func (c HostCreate) encodeBody(w *xmlWriter) {
	w.open("create")
	w.raw(`<host:create xmlns:host="` + NSHost + `">`)
	w.elem("host:name", c.Host)
	writeHostAddrs(w, HostAddrs{IPv4: c.IPv4, IPv6: c.IPv6})
	w.close("host:create")
	w.close("create")
}

func (c HostInfo) encodeBody(w *xmlWriter) {
	w.open("info")
	w.raw(`<host:info xmlns:host="` + NSHost + `">`)
	w.elem("host:name", c.Host)
	w.close("host:info")
	w.close("info")
}

func (c HostUpdate) encodeBody(w *xmlWriter) {
	w.open("update")
	w.raw(`<host:update xmlns:host="` + NSHost + `">`)
	w.elem("host:name", c.Host)
	if len(c.Add.IPv4) > 0 || len(c.Add.IPv6) > 0 {
		w.open("host:add")
		writeHostAddrs(w, c.Add)
		w.close("host:add")
	}
	if len(c.Rem.IPv4) > 0 || len(c.Rem.IPv6) > 0 {
		w.open("host:rem")
		writeHostAddrs(w, c.Rem)
		w.close("host:rem")
	}
	w.close("host:update")
	w.close("update")
}

func writeHostAddrs(w *xmlWriter, a HostAddrs) {
	for _, ip := range a.IPv4 {
		w.raw(`<host:addr ip="v4">`)
		w.text(ip)
		w.close("host:addr")
	}
	for _, ip := range a.IPv6 {
		w.raw(`<host:addr ip="v6">`)
		w.text(ip)
		w.close("host:addr")
	}
}

func (c HostDelete) encodeBody(w *xmlWriter) {
	w.open("delete")
	w.raw(`<host:delete xmlns:host="` + NSHost + `">`)
	w.elem("host:name", c.Host)
	w.close("host:delete")
	w.close("delete")
}

func (c DacorIssueToken) encodeBody(w *xmlWriter) {
	DomainInfo{Domain: c.Domain}.encodeBody(w)
	w.open("extension")
	w.raw(`<extdomain:info xmlns:extdomain="` + NSExtGR + `">`)
	w.raw("<extdomain:issueToken/>")
	w.close("extdomain:info")
	w.close("extension")
}

func (c DomainRecallApplication) encodeBody(w *xmlWriter) {
	DomainDelete{Domain: c.Domain}.encodeBody(w)
	w.open("extension")
	w.raw(`<extdomain:delete xmlns:extdomain="` + NSExtGR + `">`)
	w.elem("extdomain:op", "recallApplication")
	w.elem("extdomain:datatype", "protocol")
	w.elem("extdomain:details", c.Protocol)
	w.close("extdomain:delete")
	w.close("extension")
}
