package service

import (
	"context"
	"fmt"
	"strings"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentMethodOption struct {
	ID          model.PaymentMethod `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Available   bool                `json:"available"`
}

type CountryOption struct {
	Country
	Gateway   string `json:"gateway"`
	Available bool   `json:"available"`
}

type PaymentOptions struct {
	Methods   []PaymentMethodOption `json:"methods"`
	Countries []CountryOption       `json:"countries"`
}

type CartLine struct {
	Cake     *model.Cake     `json:"cake"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}

type CartSummary struct {
	CartID      string          `json:"cartId"`
	SellerID    string          `json:"sellerId"`
	Items       []CartLine      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
}

type CheckoutInput struct {
	Address        string
	PaymentMethod  model.PaymentMethod
	PaymentCountry string
	Email          string
}

type CheckoutResult struct {
	Order            *model.Order        `json:"order"`
	PaymentMethod    model.PaymentMethod `json:"paymentMethod"`
	PaymentCountry   string              `json:"paymentCountry,omitempty"`
	NextStep         string              `json:"nextStep"`
	AuthorizationURL string              `json:"authorizationUrl,omitempty"`
	AccessCode       string              `json:"accessCode,omitempty"`
	Reference        string              `json:"reference,omitempty"`
	Amount           decimal.Decimal     `json:"amount"`
	Conversion       *CurrencyConversion `json:"currencyConversion,omitempty"`
}

type OrderStatusView struct {
	Order            *model.Order        `json:"order"`
	Status           model.OrderStatus   `json:"status"`
	PaymentStatus    model.PaymentStatus `json:"paymentStatus"`
	PaymentMethod    model.PaymentMethod `json:"paymentMethod"`
	PaymentCountry   string              `json:"paymentCountry,omitempty"`
	PaymentReference string              `json:"paymentReference,omitempty"`
	CanProceed       bool                `json:"canProceed"`
	NextStep         string              `json:"nextStep"`
	TotalAmount      decimal.Decimal     `json:"totalAmount"`
	ItemCount        int                 `json:"itemCount"`
}

type CheckoutService interface {
	GetPaymentOptions() *PaymentOptions
	CartSummary(ctx context.Context, customerID string) (*CartSummary, error)
	Checkout(ctx context.Context, customer model.Principal, in CheckoutInput) (*CheckoutResult, error)
	// RetryPayment initializes the gateway again for an unpaid online order.
	RetryPayment(ctx context.Context, customer model.Principal, orderID, email string) (*CheckoutResult, error)
	OrderStatus(ctx context.Context, customerID, orderID string) (*OrderStatusView, error)
}

type checkoutServiceImpl struct {
	gatewayName string
	carts       CartService
	orders      OrderService
	payments    PaymentService
	logger      *zap.Logger
}

func NewCheckoutService(
	gatewayName string,
	carts CartService,
	orders OrderService,
	payments PaymentService,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		gatewayName: gatewayName,
		carts:       carts,
		orders:      orders,
		payments:    payments,
		logger:      logger,
	}
}

func (s *checkoutServiceImpl) GetPaymentOptions() *PaymentOptions {
	opts := &PaymentOptions{
		Methods: []PaymentMethodOption{
			{
				ID:          model.PaymentCashOnDelivery,
				Name:        "Cash on Delivery",
				Description: "Pay when your order is delivered",
				Available:   true,
			},
			{
				ID:          model.PaymentOnline,
				Name:        "Online Payment",
				Description: "Pay securely online",
				Available:   true,
			},
		},
		Countries: make([]CountryOption, 0, len(SupportedCountries)),
	}
	for _, c := range SupportedCountries {
		opts.Countries = append(opts.Countries, CountryOption{
			Country:   c,
			Gateway:   s.gatewayName,
			Available: true,
		})
	}
	return opts
}

func (s *checkoutServiceImpl) CartSummary(ctx context.Context, customerID string) (*CartSummary, error) {
	cart, err := s.carts.GetCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{
		CartID:      cart.ID,
		SellerID:    cart.SellerID,
		Items:       make([]CartLine, 0, len(cart.Items)),
		TotalAmount: decimal.Zero,
	}
	for _, it := range cart.Items {
		// cake deleted since it was added
		if it.Cake == nil {
			continue
		}
		line := it.Cake.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		summary.Items = append(summary.Items, CartLine{
			Cake:     it.Cake,
			Quantity: it.Quantity,
			Price:    it.Cake.Price,
			Total:    line,
		})
		summary.TotalAmount = summary.TotalAmount.Add(line)
	}
	summary.ItemCount = len(summary.Items)

	if summary.ItemCount == 0 {
		return nil, apperr.Validation("cart is empty")
	}
	return summary, nil
}

func (s *checkoutServiceImpl) Checkout(ctx context.Context, customer model.Principal, in CheckoutInput) (*CheckoutResult, error) {
	in.Address = strings.TrimSpace(in.Address)
	if in.Address == "" || in.PaymentMethod == "" {
		return nil, apperr.Validation("shipping address and payment method are required")
	}
	online := in.PaymentMethod == model.PaymentOnline
	if online {
		if in.PaymentCountry == "" {
			return nil, apperr.Validation("payment country is required for online payment")
		}
		if _, ok := CurrencyForCountry(in.PaymentCountry); !ok {
			return nil, apperr.Validation("online payment is not available in %q", in.PaymentCountry)
		}
		if in.Email == "" {
			in.Email = customer.Email
		}
		if in.Email == "" {
			return nil, apperr.Validation("email is required for online payment")
		}
	}

	summary, err := s.CartSummary(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	items := make([]OrderItemInput, len(summary.Items))
	for i, line := range summary.Items {
		items[i] = OrderItemInput{CakeID: line.Cake.ID, Quantity: line.Quantity}
	}

	order, err := s.orders.PlaceOrder(ctx, customer, PlaceOrderInput{
		Items:          items,
		Address:        in.Address,
		PaymentMethod:  in.PaymentMethod,
		PaymentCountry: in.PaymentCountry,
		KeepCart:       online,
	})
	if err != nil {
		return nil, err
	}

	if !online {
		return &CheckoutResult{
			Order:         order,
			PaymentMethod: order.PaymentMethod,
			NextStep:      NextStepOrderConfirmed,
			Amount:        order.TotalAmount,
		}, nil
	}

	return s.initialize(ctx, customer, order, in.Email)
}

func (s *checkoutServiceImpl) RetryPayment(ctx context.Context, customer model.Principal, orderID, email string) (*CheckoutResult, error) {
	order, err := s.orders.GetOrder(ctx, customer.ID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != model.PaymentOnline {
		return nil, apperr.Validation("order is not paid online")
	}
	if email == "" {
		email = customer.Email
	}
	return s.initialize(ctx, customer, order, email)
}

func (s *checkoutServiceImpl) initialize(ctx context.Context, customer model.Principal, order *model.Order, email string) (*CheckoutResult, error) {
	started, err := s.payments.Initialize(ctx, InitializePaymentInput{
		OrderID:    order.ID,
		CustomerID: customer.ID,
		Email:      email,
		Country:    order.PaymentCountry,
		Metadata: map[string]any{
			"customerName": customer.DisplayName(),
		},
	})
	if err != nil {
		s.logger.Warn("checkout payment initialization failed",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil, fmt.Errorf("initialize payment for order %s: %w", order.ID, err)
	}

	order.PaymentReference = started.Reference
	return &CheckoutResult{
		Order:            order,
		PaymentMethod:    order.PaymentMethod,
		PaymentCountry:   order.PaymentCountry,
		NextStep:         NextStepPaymentNeeded,
		AuthorizationURL: started.AuthorizationURL,
		AccessCode:       started.AccessCode,
		Reference:        started.Reference,
		Amount:           order.TotalAmount,
		Conversion:       &started.Conversion,
	}, nil
}

func (s *checkoutServiceImpl) OrderStatus(ctx context.Context, customerID, orderID string) (*OrderStatusView, error) {
	order, err := s.orders.GetOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}

	view := &OrderStatusView{
		Order:            order,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		PaymentMethod:    order.PaymentMethod,
		PaymentCountry:   order.PaymentCountry,
		PaymentReference: order.PaymentReference,
		TotalAmount:      order.TotalAmount,
		ItemCount:        len(order.Items),
	}

	switch {
	case order.PaymentMethod == model.PaymentCashOnDelivery, order.PaymentStatus == model.PaymentPaid:
		view.CanProceed = true
		view.NextStep = NextStepOrderConfirmed
	case order.PaymentStatus == model.PaymentFailed:
		view.NextStep = NextStepPaymentFailed
	default:
		view.NextStep = NextStepPaymentPending
	}
	return view, nil
}
