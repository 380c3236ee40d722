package epp

import (
	"encoding/xml"
	"fmt"
)

// Wire shapes for decoding. Namespaced payloads inside resData are told apart
// by the namespace in the field tag; check-result availability lives in the
// avail attribute of the repeated name/id element, not in a child element.

type envelope struct {
	XMLName  xml.Name     `xml:"epp"`
	Response *responseDoc `xml:"response"`
}

type responseDoc struct {
	Result struct {
		Code int    `xml:"code,attr"`
		Msg  string `xml:"msg"`
	} `xml:"result"`
	ResData   *resData      `xml:"resData"`
	Extension *extensionDoc `xml:"extension"`
}

type resData struct {
	DomainInf  *domainInfData  `xml:"urn:ietf:params:xml:ns:domain-1.0 infData"`
	DomainChk  *chkData        `xml:"urn:ietf:params:xml:ns:domain-1.0 chkData"`
	ContactInf *contactInfData `xml:"urn:ietf:params:xml:ns:contact-1.0 infData"`
	ContactChk *chkData        `xml:"urn:ietf:params:xml:ns:contact-1.0 chkData"`
	HostInf    *hostInfData    `xml:"urn:ietf:params:xml:ns:host-1.0 infData"`
	HostChk    *chkData        `xml:"urn:ietf:params:xml:ns:host-1.0 chkData"`
}

type domainInfData struct {
	Name       string `xml:"name"`
	ROID       string `xml:"roid"`
	Registrant string `xml:"registrant"`
	Contacts   []struct {
		Type string `xml:"type,attr"`
		ID   string `xml:",chardata"`
	} `xml:"contact"`
	NS struct {
		HostObjs []string `xml:"hostObj"`
	} `xml:"ns"`
	Statuses []struct {
		S string `xml:"s,attr"`
	} `xml:"status"`
	CrDate   string `xml:"crDate"`
	ExDate   string `xml:"exDate"`
	UpDate   string `xml:"upDate"`
	AuthInfo struct {
		PW string `xml:"pw"`
	} `xml:"authInfo"`
}

type contactInfData struct {
	ID         string `xml:"id"`
	Email      string `xml:"email"`
	Voice      string `xml:"voice"`
	PostalInfo struct {
		Name string `xml:"name"`
		Org  string `xml:"org"`
		Addr struct {
			Street []string `xml:"street"`
			City   string   `xml:"city"`
			SP     string   `xml:"sp"`
			PC     string   `xml:"pc"`
			CC     string   `xml:"cc"`
		} `xml:"addr"`
	} `xml:"postalInfo"`
}

type hostInfData struct {
	Name   string   `xml:"name"`
	Addrs  []string `xml:"addr"`
	CrDate string   `xml:"crDate"`
	UpDate string   `xml:"upDate"`
}

// chkData is shared by the three check-result variants: domain and host
// results key on <name>, contact results on <id>.
type chkData struct {
	CDs []struct {
		Name availElem `xml:"name"`
		ID   availElem `xml:"id"`
	} `xml:"cd"`
}

type availElem struct {
	Value string `xml:",chardata"`
	Avail string `xml:"avail,attr"`
}

type extensionDoc struct {
	GrRes *struct {
		Comment string `xml:"comment"`
	} `xml:"http://www.ics.forth.gr/gr-domain-ext-1.0 resData"`
	GrInf *struct {
		Protocol string `xml:"protocol"`
	} `xml:"http://www.ics.forth.gr/gr-domain-ext-1.0 infData"`
}

// Decode parses an EPP response document and evaluates it against the
// command's success codes. A response outside the success set still returns
// the populated Result together with a *RegistryError.
func Decode(doc []byte, cmd Command) (*Result, error) {
	var env envelope
	if err := xml.Unmarshal(doc, &env); err != nil {
		return nil, fmt.Errorf("malformed registry response: %w", err)
	}
	if env.Response == nil {
		return nil, fmt.Errorf("registry response missing <response> element")
	}

	res := &Result{
		Code:    env.Response.Result.Code,
		Message: env.Response.Result.Msg,
	}
	for _, code := range cmd.successCodes() {
		if res.Code == code {
			res.Success = true
			break
		}
	}

	if rd := env.Response.ResData; rd != nil {
		decodeResData(res, rd)
	}
	if ext := env.Response.Extension; ext != nil {
		if ext.GrRes != nil {
			res.Extension.DacorToken = ext.GrRes.Comment
		}
		if ext.GrInf != nil {
			res.Extension.Protocol = ext.GrInf.Protocol
		}
	}

	if !res.Success {
		return res, &RegistryError{Code: res.Code, Message: res.Message}
	}
	return res, nil
}

func decodeResData(res *Result, rd *resData) {
	switch {
	case rd.DomainInf != nil:
		inf := rd.DomainInf
		d := &DomainData{
			Name:        inf.Name,
			ROID:        inf.ROID,
			Registrant:  inf.Registrant,
			Nameservers: inf.NS.HostObjs,
			Created:     inf.CrDate,
			Expires:     inf.ExDate,
			Updated:     inf.UpDate,
			Password:    inf.AuthInfo.PW,
		}
		if len(inf.Contacts) > 0 {
			d.Contacts = make(map[string]string, len(inf.Contacts))
			for _, c := range inf.Contacts {
				d.Contacts[c.Type] = c.ID
			}
		}
		for _, s := range inf.Statuses {
			d.Statuses = append(d.Statuses, s.S)
		}
		res.Domain = d

	case rd.ContactInf != nil:
		inf := rd.ContactInf
		res.Contact = &ContactData{
			ID:            inf.ID,
			Email:         inf.Email,
			Voice:         inf.Voice,
			Name:          inf.PostalInfo.Name,
			Org:           inf.PostalInfo.Org,
			Street:        inf.PostalInfo.Addr.Street,
			City:          inf.PostalInfo.Addr.City,
			StateProvince: inf.PostalInfo.Addr.SP,
			PostalCode:    inf.PostalInfo.Addr.PC,
			CountryCode:   inf.PostalInfo.Addr.CC,
		}

	case rd.HostInf != nil:
		inf := rd.HostInf
		res.Host = &HostData{
			Name:      inf.Name,
			Addresses: inf.Addrs,
			Created:   inf.CrDate,
			Updated:   inf.UpDate,
		}

	case rd.DomainChk != nil:
		res.Checks = decodeChecks(rd.DomainChk, false)
	case rd.ContactChk != nil:
		res.Checks = decodeChecks(rd.ContactChk, true)
	case rd.HostChk != nil:
		res.Checks = decodeChecks(rd.HostChk, false)
	}
}

func decodeChecks(chk *chkData, byID bool) []CheckResult {
	out := make([]CheckResult, 0, len(chk.CDs))
	for _, cd := range chk.CDs {
		el := cd.Name
		if byID {
			el = cd.ID
		}
		out = append(out, CheckResult{
			ID:        el.Value,
			Available: el.Avail == "1",
		})
	}
	return out
}
