package dto

import (
	"cake-marketplace/internal/model"

	"github.com/shopspring/decimal"
)

type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorBody struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func OK(data any) Response {
	return Response{Success: true, Data: data}
}

type CakeRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Category    model.CakeCategory `json:"category"`
	Flavor      string             `json:"flavor"`
	Image       string             `json:"image"`
	Price       decimal.Decimal    `json:"price"`
	Stock       int                `json:"stock"`
	IsFeatured  bool               `json:"isFeatured"`
}

type CartItemRequest struct {
	CakeID string `json:"cakeId"`
}

type WishlistRequest struct {
	CakeID string `json:"cakeId"`
}

type OrderItem struct {
	CakeID   string `json:"cakeId"`
	Quantity int    `json:"quantity"`
}

type PlaceOrderRequest struct {
	Items          []OrderItem         `json:"items"`
	Address        string              `json:"address"`
	PaymentMethod  model.PaymentMethod `json:"paymentMethod"`
	PaymentCountry string              `json:"paymentCountry"`
}

type UpdateStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// CheckoutRequest accepts either shippingAddress or address.
type CheckoutRequest struct {
	ShippingAddress string              `json:"shippingAddress"`
	Address         string              `json:"address"`
	PaymentMethod   model.PaymentMethod `json:"paymentMethod"`
	PaymentCountry  string              `json:"paymentCountry"`
	Email           string              `json:"email"`
}

func (r CheckoutRequest) ResolvedAddress() string {
	if r.ShippingAddress != "" {
		return r.ShippingAddress
	}
	return r.Address
}

type RetryPaymentRequest struct {
	Email string `json:"email"`
}

type ChargeNonceRequest struct {
	Reference string `json:"reference"`
	Nonce     string `json:"nonce"`
}

type ReviewRequest struct {
	OrderID       string `json:"orderId"`
	CakeID        string `json:"cakeId"`
	SellerID      string `json:"sellerId"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	SellerRating  int    `json:"sellerRating"`
	SellerComment string `json:"sellerComment"`
}

type VerifyResponse struct {
	Success       bool                `json:"success"`
	Data          any                 `json:"data"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	NextStep      string              `json:"nextStep"`
	RetryPayment  bool                `json:"retryPayment"`
}

// PaymentSummary is what the unauthenticated verify endpoint reveals about a payment.
type PaymentSummary struct {
	Reference     string              `json:"reference"`
	OrderID       string              `json:"orderId"`
	OrderStatus   model.OrderStatus   `json:"orderStatus"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
