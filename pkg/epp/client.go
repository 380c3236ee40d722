package epp

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"

	"github.com/grlabs/grepp/pkg/rand"
	"github.com/sirupsen/logrus"
)

const (
	productionEndpoint = "https://regepp.ics.forth.gr:700/epp/proxy"
	sandboxEndpoint    = "https://uat-regepp.ics.forth.gr:700/epp/proxy"

	userAgent = "grepp/1.1"

	connectTimeout = 10 * time.Second
	totalTimeout   = 30 * time.Second
)

// Config holds everything needed to open a registry session.
type Config struct {
	Username string
	Password string

	// Production selects the production endpoint; otherwise the UAT
	// sandbox host is used.
	Production bool

	// CAChainFile is the registry's published certificate chain. Peer and
	// host verification are always on; the chain only extends the trust
	// pool. Empty means the system pool alone.
	CAChainFile string

	// Endpoint overrides the environment-selected URL. Tests point this
	// at an httptest server.
	Endpoint string

	// HTTPClient overrides the built transport when set. The client must
	// carry its own cookie jar.
	HTTPClient *http.Client

	// ExchangeLog, when set, receives every raw XML payload sent and
	// received. Diagnostic only: it runs synchronously but any panic is
	// swallowed so logging can never fail a call.
	ExchangeLog func(direction string, payload string)
}

// Client is one logical EPP session. Login state lives server-side, keyed by
// a session cookie the client carries across calls; a Client must therefore
// never be shared across concurrent callers. Use one Client per worker.
type Client struct {
	cfg      Config
	http     *http.Client
	endpoint string
	loggedIn bool
	log      *logrus.Entry
}

// New builds a client for the environment selected by cfg. No network I/O
// happens until the first Execute.
func New(cfg Config) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.Production {
			endpoint = productionEndpoint
		} else {
			endpoint = sandboxEndpoint
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}

		tlsConfig := &tls.Config{}
		if cfg.CAChainFile != "" {
			pem, err := os.ReadFile(cfg.CAChainFile)
			if err != nil {
				return nil, fmt.Errorf("reading registry CA chain: %w", err)
			}
			pool, err := x509.SystemCertPool()
			if err != nil {
				pool = x509.NewCertPool()
			}
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("registry CA chain %s contains no certificates", cfg.CAChainFile)
			}
			tlsConfig.RootCAs = pool
		}

		httpClient = &http.Client{
			Jar:     jar,
			Timeout: totalTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
				TLSHandshakeTimeout: connectTimeout,
				TLSClientConfig:     tlsConfig,
			},
		}
	}

	env := "sandbox"
	if cfg.Production {
		env = "production"
	}

	return &Client{
		cfg:      cfg,
		http:     httpClient,
		endpoint: endpoint,
		log:      logrus.WithField("component", "epp").WithField("environment", env),
	}, nil
}

// Execute runs one EPP command. Commands other than login/logout trigger an
// automatic login first when the session isn't established yet. Protocol
// failures return the decoded Result alongside a *RegistryError; transport
// failures return a *TransportError (result code 0 territory).
func (c *Client) Execute(cmd Command) (*Result, error) {
	switch cmd.(type) {
	case Login:
		res, err := c.exchange(cmd)
		if err == nil {
			c.loggedIn = true
		}
		return res, err
	case Logout:
		c.loggedIn = false
		return c.exchange(cmd)
	}

	if !c.loggedIn {
		if _, err := c.Execute(Login{Username: c.cfg.Username, Password: c.cfg.Password}); err != nil {
			return nil, fmt.Errorf("auto-login: %w", err)
		}
	}

	return c.exchange(cmd)
}

func (c *Client) exchange(cmd Command) (*Result, error) {
	doc := Encode(cmd, rand.TransactionID())
	c.capture("request", doc)

	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader([]byte(doc)))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "text/xml; charset=UTF-8")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).Error("registry request failed")
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	c.capture("response", string(body))

	if resp.StatusCode != http.StatusOK {
		c.log.WithField("status", resp.StatusCode).Error("registry returned non-200")
		return nil, &TransportError{Status: resp.StatusCode}
	}

	return Decode(body, cmd)
}

func (c *Client) capture(direction, payload string) {
	if c.cfg.ExchangeLog == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	c.cfg.ExchangeLog(direction, payload)
}

// Close tears the session down with a best-effort logout. Logout failures
// are logged and discarded; teardown never propagates them.
func (c *Client) Close() {
	if !c.loggedIn {
		return
	}
	if _, err := c.exchange(Logout{}); err != nil {
		c.log.WithError(err).Debug("logout on teardown failed")
	}
	c.loggedIn = false
}
