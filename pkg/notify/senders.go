package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"
)

const senderUserAgent = "grepp-dns-alert/1.0"

// EmailSender delivers over SMTP. Port 25 relay by default; set Username to
// enable PLAIN auth.
type EmailSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

func (s *EmailSender) Send(_ context.Context, recipient string, payload Payload) error {
	port := s.Port
	if port == 0 {
		port = 25
	}
	addr := fmt.Sprintf("%s:%d", s.Host, port)

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.FromName, s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", payload.Subject)
	if payload.HTML {
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	}
	msg.WriteString("\r\n")
	msg.WriteString(payload.Body)

	return smtp.SendMail(addr, auth, s.From, []string{recipient}, []byte(msg.String()))
}

// SMSSender posts the message text to an HTTP SMS gateway. Any 2xx answer
// counts as accepted.
type SMSSender struct {
	GatewayURL string
	Token      string
	Timeout    time.Duration

	client *http.Client
}

func (s *SMSSender) Send(ctx context.Context, recipient string, payload Payload) error {
	body, err := json.Marshal(map[string]string{
		"to":      recipient,
		"message": payload.Message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", senderUserAgent)
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func (s *SMSSender) httpClient() *http.Client {
	if s.client == nil {
		timeout := s.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		s.client = &http.Client{Timeout: timeout}
	}
	return s.client
}

// WebhookSender posts the payload as JSON to the recipient URL. When Secret
// is set the body is signed with HMAC-SHA256 and the hex digest sent in
// X-Grepp-Signature. Any 2xx answer counts as delivered.
type WebhookSender struct {
	Secret  string
	Timeout time.Duration

	client *http.Client
}

func (s *WebhookSender) Send(ctx context.Context, recipient string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, recipient, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", senderUserAgent)
	if s.Secret != "" {
		mac := hmac.New(sha256.New, []byte(s.Secret))
		mac.Write(body)
		req.Header.Set("X-Grepp-Signature", hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func (s *WebhookSender) httpClient() *http.Client {
	if s.client == nil {
		timeout := s.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		s.client = &http.Client{Timeout: timeout}
	}
	return s.client
}
