package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cake-marketplace/internal/config"
)

const PaystackSignatureHeader = "X-Paystack-Signature"

var ErrInvalidSignature = errors.New("invalid webhook signature")

type PaystackClient interface {
	PaymentGateway
	VerifyWebhookSignature(headers http.Header, body []byte) error
}

type paystackClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	secretKey  string
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	ID              int64  `json:"id"`
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	GatewayResponse string `json:"gateway_response"`
}

func NewPaystackClient(cfg *config.Paystack, timeout time.Duration) PaystackClient {
	return &paystackClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseApiURL: cfg.BaseApiURL,
		secretKey:  cfg.SecretKey,
	}
}

func (c *paystackClientImpl) Name() string {
	return "paystack"
}

func (c *paystackClientImpl) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error) {
	payload := map[string]any{
		"email":     req.Email,
		"amount":    strconv.FormatInt(req.AmountMinor, 10),
		"currency":  req.Currency,
		"reference": req.Reference,
		"metadata":  req.Metadata,
	}
	if req.CallbackURL != "" {
		payload["callback_url"] = req.CallbackURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	env, _, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	var data paystackInitData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("decode paystack init data: %w", err)
	}
	if data.AuthorizationURL == "" {
		return nil, fmt.Errorf("paystack returned no authorization url")
	}

	ref := data.Reference
	if ref == "" {
		ref = req.Reference
	}
	return &InitializeResponse{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        ref,
	}, nil
}

func (c *paystackClientImpl) Verify(ctx context.Context, req *VerifyRequest) (*Verification, error) {
	env, raw, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(req.Reference), nil)
	if err != nil {
		return nil, err
	}

	var data paystackVerifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("decode paystack verify data: %w", err)
	}

	return &Verification{
		Status:        paystackStatus(data.Status),
		TransactionID: strconv.FormatInt(data.ID, 10),
		AmountMinor:   data.Amount,
		Currency:      data.Currency,
		Raw:           raw,
	}, nil
}

func paystackStatus(s string) VerificationStatus {
	switch s {
	case "success":
		return VerificationSuccess
	case "ongoing", "pending", "processing", "queued":
		return VerificationPending
	default: // failed, abandoned, reversed
		return VerificationFailed
	}
}

func (c *paystackClientImpl) VerifyWebhookSignature(headers http.Header, body []byte) error {
	if c.secretKey == "" {
		return fmt.Errorf("paystack secret key not configured")
	}
	got := headers.Get(PaystackSignatureHeader)
	if got == "" {
		return ErrInvalidSignature
	}

	if !hmac.Equal([]byte(got), []byte(SignPaystackPayload(c.secretKey, body))) {
		return ErrInvalidSignature
	}
	return nil
}

// SignPaystackPayload returns the hex HMAC-SHA512 Paystack sends with each webhook.
func SignPaystackPayload(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *paystackClientImpl) do(ctx context.Context, method, path string, body []byte) (*paystackEnvelope, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("paystack request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read paystack response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, raw, fmt.Errorf("paystack error %d: %s", resp.StatusCode, string(raw))
	}

	var env paystackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, raw, fmt.Errorf("decode paystack response: %w", err)
	}
	if !env.Status {
		return nil, raw, fmt.Errorf("paystack rejected request: %s", env.Message)
	}

	return &env, raw, nil
}
