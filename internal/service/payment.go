package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/client"
	"cake-marketplace/internal/model"
	"cake-marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	NextStepOrderConfirmed = "order_confirmed"
	NextStepPaymentPending = "payment_pending"
	NextStepPaymentFailed  = "payment_failed"
	NextStepPaymentNeeded  = "payment_required"

	chargeSucceededEvent = "charge.success"
)

type InitializePaymentInput struct {
	OrderID    string
	CustomerID string
	Email      string
	Country    string
	Metadata   map[string]any
}

type CurrencyConversion struct {
	FromCurrency    string          `json:"fromCurrency"`
	ToCurrency      string          `json:"toCurrency"`
	OriginalAmount  decimal.Decimal `json:"originalAmount"`
	ConvertedAmount decimal.Decimal `json:"convertedAmount"`
	ExchangeRate    decimal.Decimal `json:"exchangeRate"`
	AmountMinor     int64           `json:"amountMinor"`
}

type InitializeResult struct {
	Payment          *model.Payment
	AuthorizationURL string
	AccessCode       string
	Reference        string
	Conversion       CurrencyConversion
}

type VerifyResult struct {
	Payment       *model.Payment
	Order         *model.Order
	PaymentStatus model.PaymentStatus
	NextStep      string
	RetryPayment  bool
}

// WebhookVerifier is implemented by gateways that sign their webhook deliveries.
type WebhookVerifier interface {
	VerifyWebhookSignature(headers http.Header, body []byte) error
}

type PaymentService interface {
	Initialize(ctx context.Context, in InitializePaymentInput) (*InitializeResult, error)
	// Verify is idempotent: a settled payment returns its stored result untouched.
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
	ChargeNonce(ctx context.Context, customerID, reference, nonce string) (*VerifyResult, error)
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
	GetPayment(ctx context.Context, customerID, paymentID string) (*model.Payment, error)
}

type paymentServiceImpl struct {
	db               *gorm.DB
	gateway          client.PaymentGateway
	rates            RateProvider
	timeout          time.Duration
	callbackURL      string
	orderRepo        repository.OrderRepository
	paymentRepo      repository.PaymentRepository
	cartRepo         repository.CartRepository
	webhookEventRepo repository.WebhookEventRepository
	notifier         Emitter
	logger           *zap.Logger
}

func NewPaymentService(
	db *gorm.DB,
	gateway client.PaymentGateway,
	rates RateProvider,
	timeout time.Duration,
	callbackURL string,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	cartRepo repository.CartRepository,
	webhookEventRepo repository.WebhookEventRepository,
	notifier Emitter,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:               db,
		gateway:          gateway,
		rates:            rates,
		timeout:          timeout,
		callbackURL:      callbackURL,
		orderRepo:        orderRepo,
		paymentRepo:      paymentRepo,
		cartRepo:         cartRepo,
		webhookEventRepo: webhookEventRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

func newReference() string {
	return "cake_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *paymentServiceImpl) gatewayCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *paymentServiceImpl) Initialize(ctx context.Context, in InitializePaymentInput) (*InitializeResult, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, apperr.Validation("email is required for online payment")
	}
	currency, ok := CurrencyForCountry(in.Country)
	if !ok {
		return nil, apperr.Validation("online payment is not available in %q", in.Country)
	}

	order, err := s.orderRepo.FindForCustomer(ctx, nil, in.CustomerID, in.OrderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.PaymentMethod != model.PaymentOnline {
		return nil, apperr.Validation("order is not paid online")
	}

	rate, err := s.rates.Rate(ctx, order.Currency, currency)
	if err != nil {
		return nil, fmt.Errorf("get exchange rate: %w", err)
	}
	converted, minor := toMinorUnits(order.TotalAmount, rate)
	conversion := CurrencyConversion{
		FromCurrency:    order.Currency,
		ToCurrency:      currency,
		OriginalAmount:  order.TotalAmount,
		ConvertedAmount: converted,
		ExchangeRate:    rate,
		AmountMinor:     minor,
	}

	payment, err := s.paymentRepo.FindByOrder(ctx, nil, order.ID)
	switch {
	case err == nil:
		if payment.IsTerminal() {
			return nil, apperr.State("payment for this order is already %s", payment.Status)
		}
		if payment.AuthorizationURL != "" {
			return &InitializeResult{
				Payment:          payment,
				AuthorizationURL: payment.AuthorizationURL,
				AccessCode:       payment.AccessCode,
				Reference:        payment.Reference,
				Conversion:       conversion,
			}, nil
		}
	case repository.IsNotFound(err):
		payment = &model.Payment{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			CustomerID:     order.CustomerID,
			Email:          in.Email,
			Amount:         order.TotalAmount,
			Currency:       order.Currency,
			Method:         model.PaymentOnline,
			Status:         model.PaymentPending,
			Gateway:        s.gateway.Name(),
			Country:        in.Country,
			ChargeCurrency: currency,
			ChargeAmount:   minor,
			ExchangeRate:   rate,
			Reference:      newReference(),
		}
		if err := s.paymentRepo.Create(ctx, nil, payment); err != nil {
			return nil, fmt.Errorf("store payment: %w", err)
		}
	default:
		return nil, fmt.Errorf("find payment: %w", err)
	}

	metadata := map[string]any{
		"orderId":        order.ID,
		"paymentCountry": in.Country,
	}
	for k, v := range in.Metadata {
		metadata[k] = v
	}

	gctx, cancel := s.gatewayCtx(ctx)
	defer cancel()

	resp, err := s.gateway.Initialize(gctx, &client.InitializeRequest{
		Email:       payment.Email,
		AmountMinor: payment.ChargeAmount,
		Currency:    payment.ChargeCurrency,
		Reference:   payment.Reference,
		CallbackURL: s.callbackURL,
		Metadata:    metadata,
	})
	if err != nil {
		// the payment stays pending so the customer can retry
		s.logger.Warn("payment initialization failed",
			zap.String("payment_id", payment.ID),
			zap.String("gateway", s.gateway.Name()),
			zap.Error(err))
		return nil, apperr.Gateway("payment initialization failed", err)
	}

	payment.AuthorizationURL = resp.AuthorizationURL
	payment.AccessCode = resp.AccessCode
	if err := s.paymentRepo.SaveInitialization(ctx, payment); err != nil {
		return nil, fmt.Errorf("save payment initialization: %w", err)
	}
	if err := s.orderRepo.SetPaymentReference(ctx, nil, order.ID, payment.Reference); err != nil {
		return nil, fmt.Errorf("set order payment reference: %w", err)
	}

	s.logger.Info("payment initialized",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", order.ID),
		zap.String("reference", payment.Reference),
		zap.Int64("amount_minor", minor),
		zap.String("currency", currency))

	return &InitializeResult{
		Payment:          payment,
		AuthorizationURL: payment.AuthorizationURL,
		AccessCode:       payment.AccessCode,
		Reference:        payment.Reference,
		Conversion:       conversion,
	}, nil
}

func (s *paymentServiceImpl) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if reference == "" {
		return nil, apperr.Validation("payment reference is required")
	}

	payment, err := s.paymentRepo.FindByReference(ctx, nil, reference)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("payment not found")
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}

	if payment.IsTerminal() {
		return s.result(ctx, payment)
	}

	gctx, cancel := s.gatewayCtx(ctx)
	defer cancel()

	v, err := s.gateway.Verify(gctx, &client.VerifyRequest{
		Reference:     payment.Reference,
		TransactionID: payment.TransactionID,
	})
	if err != nil {
		s.logger.Warn("payment verification failed",
			zap.String("reference", reference),
			zap.Error(err))
		return nil, apperr.Gateway("payment verification failed", err)
	}

	switch v.Status {
	case client.VerificationPending:
		return s.result(ctx, payment)
	case client.VerificationSuccess:
		if v.AmountMinor != 0 && v.AmountMinor != payment.ChargeAmount {
			s.logger.Error("paid amount does not match charge",
				zap.String("reference", reference),
				zap.Int64("expected", payment.ChargeAmount),
				zap.Int64("got", v.AmountMinor))
			return s.fail(ctx, payment, v)
		}
		return s.settle(ctx, payment, v)
	default:
		return s.fail(ctx, payment, v)
	}
}

// settle marks the payment paid and confirms the order in one transaction.
func (s *paymentServiceImpl) settle(ctx context.Context, payment *model.Payment, v *client.Verification) (*VerifyResult, error) {
	settled := true
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := s.paymentRepo.MarkPaid(ctx, tx, payment.ID, v.TransactionID, v.Raw, time.Now())
		if errors.Is(err, repository.ErrAlreadySettled) {
			settled = false
			return nil
		}
		if err != nil {
			return fmt.Errorf("mark payment paid: %w", err)
		}

		if err := s.orderRepo.UpdatePaymentStatus(ctx, tx, payment.OrderID, model.PaymentPaid); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		err = s.orderRepo.TransitionStatus(ctx, tx, payment.OrderID, model.StatusPending, model.StatusAccepted, s.gateway.Name())
		if errors.Is(err, repository.ErrStaleStatus) {
			s.logger.Warn("paid order was not pending", zap.String("order_id", payment.OrderID))
		} else if err != nil {
			return fmt.Errorf("confirm order: %w", err)
		}

		if err := s.cartRepo.DeleteByCustomer(ctx, tx, payment.CustomerID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res, err := s.reload(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if !settled {
		return res, nil
	}

	s.logger.Info("payment confirmed",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID),
		zap.String("transaction_id", v.TransactionID))

	s.notifier.Emit(ctx, payment.CustomerID, model.NotifyPayment,
		fmt.Sprintf("Your payment of %s %s has been confirmed.", payment.Amount.StringFixed(2), payment.Currency),
		map[string]any{"paymentId": payment.ID, "orderId": payment.OrderID})

	return res, nil
}

func (s *paymentServiceImpl) fail(ctx context.Context, payment *model.Payment, v *client.Verification) (*VerifyResult, error) {
	failed := true
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := s.paymentRepo.MarkFailed(ctx, tx, payment.ID, v.TransactionID, v.Raw)
		if errors.Is(err, repository.ErrAlreadySettled) {
			failed = false
			return nil
		}
		if err != nil {
			return fmt.Errorf("mark payment failed: %w", err)
		}
		return s.orderRepo.UpdatePaymentStatus(ctx, tx, payment.OrderID, model.PaymentFailed)
	})
	if err != nil {
		return nil, err
	}

	res, err := s.reload(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if !failed {
		return res, nil
	}

	s.logger.Info("payment failed",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID))

	s.notifier.Emit(ctx, payment.CustomerID, model.NotifyPayment,
		"Your payment was not successful. Please try again.",
		map[string]any{"paymentId": payment.ID, "orderId": payment.OrderID})

	return res, nil
}

func (s *paymentServiceImpl) reload(ctx context.Context, paymentID string) (*VerifyResult, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("reload payment: %w", err)
	}
	return s.result(ctx, payment)
}

func (s *paymentServiceImpl) result(ctx context.Context, payment *model.Payment) (*VerifyResult, error) {
	order, err := s.orderRepo.FindByID(ctx, nil, payment.OrderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	res := &VerifyResult{
		Payment:       payment,
		Order:         order,
		PaymentStatus: payment.Status,
	}
	switch payment.Status {
	case model.PaymentPaid:
		res.NextStep = NextStepOrderConfirmed
	case model.PaymentFailed:
		res.NextStep = NextStepPaymentFailed
		res.RetryPayment = true
	default:
		res.NextStep = NextStepPaymentPending
	}
	return res, nil
}

func (s *paymentServiceImpl) ChargeNonce(ctx context.Context, customerID, reference, nonce string) (*VerifyResult, error) {
	charger, ok := s.gateway.(client.NonceCharger)
	if !ok {
		return nil, apperr.Validation("%s does not accept payment nonces", s.gateway.Name())
	}
	if nonce == "" {
		return nil, apperr.Validation("payment nonce is required")
	}

	payment, err := s.paymentRepo.FindByReference(ctx, nil, reference)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("payment not found")
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if payment.CustomerID != customerID {
		return nil, apperr.NotFound("payment not found")
	}

	if !payment.IsTerminal() && payment.TransactionID == "" {
		gctx, cancel := s.gatewayCtx(ctx)
		defer cancel()

		txID, err := charger.ChargeNonce(gctx, &client.ChargeRequest{
			Nonce:       nonce,
			AmountMinor: payment.ChargeAmount,
			Reference:   payment.Reference,
		})
		if err != nil {
			return nil, apperr.Gateway("payment charge failed", err)
		}
		if err := s.paymentRepo.SetTransactionID(ctx, payment.ID, txID); err != nil {
			return nil, fmt.Errorf("store transaction id: %w", err)
		}
	}

	return s.Verify(ctx, reference)
}

type webhookEnvelope struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
	} `json:"data"`
}

// HandleWebhook acknowledges every well-signed event and verifies only charge.success.
func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	verifier, ok := s.gateway.(WebhookVerifier)
	if !ok {
		return apperr.Validation("%s does not send webhooks", s.gateway.Name())
	}
	if err := verifier.VerifyWebhookSignature(headers, body); err != nil {
		s.logger.Warn("rejected webhook", zap.Error(err))
		return apperr.Unauthorized("invalid webhook signature")
	}

	var event webhookEnvelope
	if err := json.Unmarshal(body, &event); err != nil {
		return apperr.Validation("malformed webhook payload")
	}

	if event.Event != chargeSucceededEvent {
		s.logger.Debug("ignoring webhook event", zap.String("event", event.Event))
		return nil
	}
	if event.Data.Reference == "" {
		return apperr.Validation("webhook payload has no reference")
	}

	eventID := event.Event + ":" + event.Data.Reference
	if event.Data.ID != 0 {
		eventID = event.Event + ":" + strconv.FormatInt(event.Data.ID, 10)
	}

	seen, err := s.webhookEventRepo.Exists(ctx, eventID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if seen {
		return nil
	}

	result, err := s.Verify(ctx, event.Data.Reference)
	switch {
	case err != nil && apperr.KindOf(err) != apperr.KindNotFound:
		return err
	case err != nil:
		s.logger.Warn("webhook for unknown payment", zap.String("reference", event.Data.Reference))
	case !result.PaymentStatus.IsTerminal():
		// leave the event unrecorded so a redelivery can settle it
		s.logger.Info("webhook payment still pending",
			zap.String("reference", event.Data.Reference),
			zap.String("event_id", eventID))
		return nil
	}

	if err := s.webhookEventRepo.MarkProcessed(ctx, eventID, event.Event, event.Data.Reference); err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	return nil
}

func (s *paymentServiceImpl) GetPayment(ctx context.Context, customerID, paymentID string) (*model.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("payment not found")
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if payment.CustomerID != customerID {
		return nil, apperr.NotFound("payment not found")
	}
	return payment, nil
}
