package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cake-marketplace/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPaystack(t *testing.T, h http.HandlerFunc) PaystackClient {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewPaystackClient(&config.Paystack{
		BaseApiURL: srv.URL,
		SecretKey:  "sk_test",
	}, 2*time.Second)
}

func TestPaystackInitialize(t *testing.T) {
	var got map[string]any
	c := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"cake_1"}}`))
	})

	resp, err := c.Initialize(context.Background(), &InitializeRequest{
		Email:       "ada@example.com",
		AmountMinor: 1500000,
		Currency:    "NGN",
		Reference:   "cake_1",
		CallbackURL: "https://shop.example/checkout/verify",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", resp.AuthorizationURL)
	assert.Equal(t, "abc", resp.AccessCode)
	assert.Equal(t, "cake_1", resp.Reference)

	assert.Equal(t, "1500000", got["amount"])
	assert.Equal(t, "NGN", got["currency"])
	assert.Equal(t, "https://shop.example/checkout/verify", got["callback_url"])
}

func TestPaystackInitialize_Rejected(t *testing.T) {
	c := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	})

	_, err := c.Initialize(context.Background(), &InitializeRequest{Reference: "cake_1"})
	assert.ErrorContains(t, err, "Invalid key")
}

func TestPaystackInitialize_HTTPError(t *testing.T) {
	c := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Initialize(context.Background(), &InitializeRequest{Reference: "cake_1"})
	assert.ErrorContains(t, err, "503")
}

func TestPaystackVerify(t *testing.T) {
	tests := []struct {
		status string
		want   VerificationStatus
	}{
		{"success", VerificationSuccess},
		{"ongoing", VerificationPending},
		{"abandoned", VerificationFailed},
		{"failed", VerificationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			c := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/transaction/verify/cake_1", r.URL.Path)
				w.Write([]byte(`{"status":true,"data":{"id":42,"status":"` + tt.status + `","reference":"cake_1","amount":1500000,"currency":"NGN"}}`))
			})

			v, err := c.Verify(context.Background(), &VerifyRequest{Reference: "cake_1"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Status)
			assert.Equal(t, "42", v.TransactionID)
			assert.Equal(t, int64(1500000), v.AmountMinor)
			assert.NotEmpty(t, v.Raw)
		})
	}
}

func TestPaystackVerify_Timeout(t *testing.T) {
	c := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Verify(ctx, &VerifyRequest{Reference: "cake_1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPaystackWebhookSignature(t *testing.T) {
	c := NewPaystackClient(&config.Paystack{SecretKey: "sk_test"}, time.Second)
	body := []byte(`{"event":"charge.success","data":{"reference":"cake_1"}}`)

	h := http.Header{}
	h.Set(PaystackSignatureHeader, SignPaystackPayload("sk_test", body))
	assert.NoError(t, c.VerifyWebhookSignature(h, body))

	h.Set(PaystackSignatureHeader, SignPaystackPayload("other", body))
	assert.ErrorIs(t, c.VerifyWebhookSignature(h, body), ErrInvalidSignature)

	assert.ErrorIs(t, c.VerifyWebhookSignature(http.Header{}, body), ErrInvalidSignature)
}
