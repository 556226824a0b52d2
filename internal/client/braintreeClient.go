package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"cake-marketplace/internal/config"

	"github.com/braintree-go/braintree-go"
)

type braintreeClientImpl struct {
	gateway     *braintree.Braintree
	checkoutURL string
}

// NewBraintreeClient initializes the Braintree SDK gateway. checkoutURL is the
// drop-in page the customer is sent to with the payment reference.
func NewBraintreeClient(cfg *config.Braintree, checkoutURL string) PaymentGateway {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway:     gateway,
		checkoutURL: checkoutURL,
	}
}

func (c *braintreeClientImpl) Name() string {
	return "braintree"
}

// Initialize hands out a client token; the charge itself happens in ChargeNonce.
func (c *braintreeClientImpl) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error) {
	token, err := c.gateway.ClientToken().Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate braintree client token: %w", err)
	}

	return &InitializeResponse{
		AuthorizationURL: c.checkoutURL + "?reference=" + url.QueryEscape(req.Reference),
		AccessCode:       token,
		Reference:        req.Reference,
	}, nil
}

func (c *braintreeClientImpl) ChargeNonce(ctx context.Context, req *ChargeRequest) (string, error) {
	tx, err := c.gateway.Transaction().Create(ctx, &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(req.AmountMinor, 2),
		PaymentMethodNonce: req.Nonce,
		OrderId:            req.Reference,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true, // Captures the funds immediately
		},
	})
	if err != nil {
		return "", fmt.Errorf("transaction creation failed: %w", err)
	}

	return tx.Id, nil
}

func (c *braintreeClientImpl) Verify(ctx context.Context, req *VerifyRequest) (*Verification, error) {
	if req.TransactionID == "" {
		return &Verification{Status: VerificationPending}, nil
	}

	tx, err := c.gateway.Transaction().Find(ctx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("find braintree transaction: %w", err)
	}

	raw, _ := json.Marshal(tx)
	v := &Verification{
		TransactionID: tx.Id,
		Raw:           raw,
	}

	switch tx.Status {
	case braintree.TransactionStatusSubmittedForSettlement,
		braintree.TransactionStatusSettling,
		braintree.TransactionStatusSettled:
		v.Status = VerificationSuccess
	case braintree.TransactionStatusAuthorized:
		v.Status = VerificationPending
	default:
		v.Status = VerificationFailed
	}

	return v, nil
}
