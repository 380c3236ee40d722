package epp

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionCookie = "EPPSESSIONID"

// fakeRegistry serves canned EPP responses and enforces the session cookie
// the way the real proxy does: login sets it, everything else requires it.
type fakeRegistry struct {
	t        *testing.T
	requests []string
}

func (f *fakeRegistry) handler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)
	doc := string(body)
	f.requests = append(f.requests, doc)

	switch {
	case strings.Contains(doc, "<login>"):
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "abc123"})
		f.respond(w, `<result code="1000"><msg>ok</msg></result>`)
	case strings.Contains(doc, "<logout/>"):
		f.respond(w, `<result code="1500"><msg>logged out</msg></result>`)
	default:
		if c, err := r.Cookie(sessionCookie); err != nil || c.Value != "abc123" {
			f.respond(w, `<result code="2002"><msg>no session</msg></result>`)
			return
		}
		f.respond(w, `<result code="1000"><msg>ok</msg></result><resData>
			<domain:chkData xmlns:domain="urn:ietf:params:xml:ns:domain-1.0">
				<domain:cd><domain:name avail="1">free.gr</domain:name></domain:cd>
			</domain:chkData></resData>`)
	}
}

func (f *fakeRegistry) respond(w http.ResponseWriter, inner string) {
	w.Header().Set("Content-Type", "text/xml; charset=UTF-8")
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><epp xmlns="` + NSEpp + `"><response>` + inner + `</response></epp>`))
}

func newTestClient(t *testing.T, endpoint string) *Client {
	c, err := New(Config{
		Username: "registrar",
		Password: "pw",
		Endpoint: endpoint,
	})
	require.NoError(t, err)
	return c
}

func TestClientAutoLoginAndCookieContinuity(t *testing.T) {
	reg := &fakeRegistry{t: t}
	srv := httptest.NewServer(http.HandlerFunc(reg.handler))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	res, err := client.Execute(DomainCheck{Domains: []string{"free.gr"}})
	require.NoError(t, err)
	require.Len(t, res.Checks, 1)
	assert.True(t, res.Checks[0].Available)

	// Login happened implicitly before the check
	require.Len(t, reg.requests, 2)
	assert.Contains(t, reg.requests[0], "<login>")
	assert.Contains(t, reg.requests[1], "domain:check")

	// A second command reuses the session, no second login
	_, err = client.Execute(DomainCheck{Domains: []string{"free.gr"}})
	require.NoError(t, err)
	require.Len(t, reg.requests, 3)
	assert.Contains(t, reg.requests[2], "domain:check")
}

func TestClientCloseLogsOut(t *testing.T) {
	reg := &fakeRegistry{t: t}
	srv := httptest.NewServer(http.HandlerFunc(reg.handler))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Execute(DomainCheck{Domains: []string{"free.gr"}})
	require.NoError(t, err)

	client.Close()
	require.NotEmpty(t, reg.requests)
	assert.Contains(t, reg.requests[len(reg.requests)-1], "<logout/>")

	// Close on an already closed client is a no-op
	before := len(reg.requests)
	client.Close()
	assert.Len(t, reg.requests, before)
}

func TestClientNon200IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.Execute(Login{Username: "registrar", Password: "pw"})
	require.Error(t, err)
	assert.True(t, IsTransport(err))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.Status)
}

func TestClientConnectionFailureIsTransportError(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	_, err := client.Execute(Login{Username: "registrar", Password: "pw"})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestClientExchangeLogPanicIsSwallowed(t *testing.T) {
	reg := &fakeRegistry{t: t}
	srv := httptest.NewServer(http.HandlerFunc(reg.handler))
	defer srv.Close()

	client, err := New(Config{
		Username: "registrar",
		Password: "pw",
		Endpoint: srv.URL,
		ExchangeLog: func(direction, payload string) {
			panic("broken log sink")
		},
	})
	require.NoError(t, err)

	_, err = client.Execute(Login{Username: "registrar", Password: "pw"})
	assert.NoError(t, err)
}
