package epp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDomainCreate(t *testing.T) {
	doc := Encode(DomainCreate{
		Domain:      "παραδειγμα.gr",
		Years:       2,
		Nameservers: []string{"ns1.example.gr", "ns2.example.gr"},
		Registrant:  "REG_abc12345",
		Contacts: []ContactRef{
			{Type: "admin", ID: "REG_abc12345"},
			{Type: "tech", ID: "REG_abc12345"},
		},
		Password: "S3cret!pw",
	}, "ABC123XYZ0")

	assert.Contains(t, doc, `<epp xmlns="urn:ietf:params:xml:ns:epp-1.0">`)
	assert.Contains(t, doc, `<domain:create xmlns:domain="urn:ietf:params:xml:ns:domain-1.0">`)
	assert.Contains(t, doc, `<domain:name>παραδειγμα.gr</domain:name>`)
	assert.Contains(t, doc, `<domain:period unit="y">2</domain:period>`)
	assert.Contains(t, doc, `<domain:hostObj>ns1.example.gr</domain:hostObj>`)
	assert.Contains(t, doc, `<domain:contact type="admin">REG_abc12345</domain:contact>`)
	assert.Contains(t, doc, `<clTRID>ABC123XYZ0</clTRID>`)
}

func TestEncodeEscapesUserInput(t *testing.T) {
	doc := Encode(DomainCheck{Domains: []string{`evil<&>"'.gr`}}, "TXID000001")

	assert.NotContains(t, doc, `evil<&>`)
	assert.Contains(t, doc, "evil&lt;&amp;&gt;")
}

func TestEncodeRecallApplication(t *testing.T) {
	doc := Encode(DomainRecallApplication{Domain: "example.gr", Protocol: "991234"}, "TXID000002")

	assert.Contains(t, doc, `<domain:delete xmlns:domain="urn:ietf:params:xml:ns:domain-1.0">`)
	assert.Contains(t, doc, `<extdomain:op>recallApplication</extdomain:op>`)
	assert.Contains(t, doc, `<extdomain:datatype>protocol</extdomain:datatype>`)
	assert.Contains(t, doc, `<extdomain:details>991234</extdomain:details>`)
	// The extension must come before clTRID inside <command>
	assert.Less(t, strings.Index(doc, "</extension>"), strings.Index(doc, "<clTRID>"))
}

func TestDecodeCheckReadsAvailAttribute(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<epp xmlns="urn:ietf:params:xml:ns:epp-1.0">
  <response>
    <result code="1000"><msg>Command completed successfully</msg></result>
    <resData>
      <domain:chkData xmlns:domain="urn:ietf:params:xml:ns:domain-1.0">
        <domain:cd><domain:name avail="1">free.gr</domain:name></domain:cd>
        <domain:cd><domain:name avail="0">taken.gr</domain:name></domain:cd>
      </domain:chkData>
    </resData>
  </response>
</epp>`)

	res, err := Decode(doc, DomainCheck{Domains: []string{"free.gr", "taken.gr"}})
	require.NoError(t, err)
	require.Len(t, res.Checks, 2)
	assert.Equal(t, "free.gr", res.Checks[0].ID)
	assert.True(t, res.Checks[0].Available)
	assert.Equal(t, "taken.gr", res.Checks[1].ID)
	assert.False(t, res.Checks[1].Available)
}

func TestDecodeDomainInfoOptionalElementsAbsent(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<epp xmlns="urn:ietf:params:xml:ns:epp-1.0">
  <response>
    <result code="1000"><msg>ok</msg></result>
    <resData>
      <domain:infData xmlns:domain="urn:ietf:params:xml:ns:domain-1.0">
        <domain:name>example.gr</domain:name>
        <domain:roid>D12345-GR</domain:roid>
        <domain:status s="ok"/>
        <domain:registrant>REG_x</domain:registrant>
        <domain:ns>
          <domain:hostObj>ns1.example.gr</domain:hostObj>
        </domain:ns>
        <domain:crDate>2024-01-15T09:00:00Z</domain:crDate>
        <domain:exDate>2026-01-15T09:00:00Z</domain:exDate>
      </domain:infData>
    </resData>
  </response>
</epp>`)

	res, err := Decode(doc, DomainInfo{Domain: "example.gr"})
	require.NoError(t, err)
	require.NotNil(t, res.Domain)
	assert.Equal(t, "example.gr", res.Domain.Name)
	assert.Equal(t, []string{"ns1.example.gr"}, res.Domain.Nameservers)
	assert.Equal(t, "2026-01-15T09:00:00Z", res.Domain.Expires)
	assert.Empty(t, res.Domain.Updated)
	assert.Empty(t, res.Domain.Password)
	assert.True(t, res.Domain.HasStatus("ok"))
	assert.False(t, res.Domain.HasStatus("pendingDelete"))
}

func TestDecodeContactInfoOptionalAbsent(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<epp xmlns="urn:ietf:params:xml:ns:epp-1.0">
  <response>
    <result code="1000"><msg>ok</msg></result>
    <resData>
      <contact:infData xmlns:contact="urn:ietf:params:xml:ns:contact-1.0">
        <contact:id>REG_abc</contact:id>
        <contact:postalInfo type="loc">
          <contact:name>Maria Papadopoulou</contact:name>
          <contact:addr>
            <contact:street>Ermou 1</contact:street>
            <contact:city>Athens</contact:city>
            <contact:pc>10563</contact:pc>
            <contact:cc>GR</contact:cc>
          </contact:addr>
        </contact:postalInfo>
        <contact:email>maria@example.gr</contact:email>
      </contact:infData>
    </resData>
  </response>
</epp>`)

	res, err := Decode(doc, ContactInfo{ID: "REG_abc"})
	require.NoError(t, err)
	require.NotNil(t, res.Contact)
	assert.Equal(t, "REG_abc", res.Contact.ID)
	assert.Equal(t, "Maria Papadopoulou", res.Contact.Name)
	assert.Empty(t, res.Contact.Org)
	assert.Empty(t, res.Contact.StateProvince)
	assert.Empty(t, res.Contact.Voice)
}

func TestDecodeHostInfo(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<epp xmlns="urn:ietf:params:xml:ns:epp-1.0">
  <response>
    <result code="1000"><msg>ok</msg></result>
    <resData>
      <host:infData xmlns:host="urn:ietf:params:xml:ns:host-1.0">
        <host:name>ns1.example.gr</host:name>
        <host:addr ip="v4">194.177.210.10</host:addr>
        <host:addr ip="v6">2001:648:2ffc::10</host:addr>
        <host:crDate>2024-02-01T12:00:00Z</host:crDate>
      </host:infData>
    </resData>
  </response>
</epp>`)

	res, err := Decode(doc, HostInfo{Host: "ns1.example.gr"})
	require.NoError(t, err)
	require.NotNil(t, res.Host)
	assert.Equal(t, "ns1.example.gr", res.Host.Name)
	assert.Equal(t, []string{"194.177.210.10", "2001:648:2ffc::10"}, res.Host.Addresses)
	assert.Equal(t, "2024-02-01T12:00:00Z", res.Host.Created)
	assert.Empty(t, res.Host.Updated)
}

func TestDecodeFailureReturnsResultAndRegistryError(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<epp xmlns="urn:ietf:params:xml:ns:epp-1.0">
  <response>
    <result code="2303"><msg>Object does not exist</msg></result>
  </response>
</epp>`)

	res, err := Decode(doc, DomainInfo{Domain: "gone.gr"})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 2303, res.Code)
	assert.False(t, res.Success)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsAuthorization(err))
}

func TestDecodePendingAcceptedForCreate(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<epp xmlns="urn:ietf:params:xml:ns:epp-1.0">
  <response>
    <result code="1001"><msg>Command completed; action pending</msg></result>
  </response>
</epp>`)

	res, err := Decode(doc, DomainCreate{Domain: "pending.gr"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, CodePending, res.Code)

	// The same code fails a plain info
	_, err = Decode(doc, DomainInfo{Domain: "pending.gr"})
	require.Error(t, err)
}

func TestDecodeExtensionToken(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<epp xmlns="urn:ietf:params:xml:ns:epp-1.0">
  <response>
    <result code="1000"><msg>ok</msg></result>
    <extension>
      <extdomain:resData xmlns:extdomain="http://www.ics.forth.gr/gr-domain-ext-1.0">
        <extdomain:comment>TOKEN-9f8e7d6c</extdomain:comment>
      </extdomain:resData>
    </extension>
  </response>
</epp>`)

	res, err := Decode(doc, DacorIssueToken{Domain: "example.gr"})
	require.NoError(t, err)
	assert.Equal(t, "TOKEN-9f8e7d6c", res.Extension.DacorToken)
}

func TestDecodeExtensionProtocol(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<epp xmlns="urn:ietf:params:xml:ns:epp-1.0">
  <response>
    <result code="1000"><msg>ok</msg></result>
    <resData>
      <domain:infData xmlns:domain="urn:ietf:params:xml:ns:domain-1.0">
        <domain:name>fresh.gr</domain:name>
      </domain:infData>
    </resData>
    <extension>
      <extdomain:infData xmlns:extdomain="http://www.ics.forth.gr/gr-domain-ext-1.0">
        <extdomain:protocol>991234</extdomain:protocol>
      </extdomain:infData>
    </extension>
  </response>
</epp>`)

	res, err := Decode(doc, DomainInfo{Domain: "fresh.gr"})
	require.NoError(t, err)
	assert.Equal(t, "991234", res.Extension.Protocol)
	require.NotNil(t, res.Domain)
	assert.Equal(t, "fresh.gr", res.Domain.Name)
}

func TestDecodeMalformedDocument(t *testing.T) {
	_, err := Decode([]byte("this is not xml at all <"), DomainInfo{Domain: "x.gr"})
	require.Error(t, err)
}
