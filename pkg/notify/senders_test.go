package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSenderSignsPayload(t *testing.T) {
	var gotSignature string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Grepp-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := &WebhookSender{Secret: "hush"}
	err := sender.Send(context.Background(), srv.URL, Payload{Kind: "post_change", Subject: "hi"})
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte("hush"))
	mac.Write(gotBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSignature)
	assert.Contains(t, string(gotBody), `"post_change"`)
}

func TestWebhookSenderUnsignedWithoutSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-Grepp-Signature"))
	}))
	defer srv.Close()

	sender := &WebhookSender{}
	require.NoError(t, sender.Send(context.Background(), srv.URL, Payload{}))
}

func TestWebhookSenderNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sender := &WebhookSender{}
	err := sender.Send(context.Background(), srv.URL, Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSMSSenderPostsMessage(t *testing.T) {
	var gotBody []byte
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	sender := &SMSSender{GatewayURL: srv.URL, Token: "tok123"}
	err := sender.Send(context.Background(), "+306900000000", Payload{Message: "DNS changed"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Contains(t, string(gotBody), "+306900000000")
	assert.Contains(t, string(gotBody), "DNS changed")
}
