package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the gateway settlement record of an online order, one per order.
type Payment struct {
	ID         string          `gorm:"primaryKey;size:64;not null" json:"id"`
	OrderID    string          `gorm:"size:64;uniqueIndex;not null" json:"orderId"`
	CustomerID string          `gorm:"size:64;index;not null" json:"customerId"`
	Email      string          `gorm:"size:128" json:"email"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency   string          `gorm:"size:8;not null" json:"currency"`
	Method     PaymentMethod   `gorm:"size:32;not null" json:"method"`
	Status     PaymentStatus   `gorm:"size:32;index;not null" json:"status"`

	Gateway          string          `gorm:"size:32;not null" json:"gateway"`
	Country          string          `gorm:"size:64" json:"country"`
	ChargeCurrency   string          `gorm:"size:8" json:"chargeCurrency"`
	ChargeAmount     int64           `json:"chargeAmount"` // minor units of ChargeCurrency
	ExchangeRate     decimal.Decimal `gorm:"type:decimal(18,6)" json:"exchangeRate"`
	Reference        string          `gorm:"size:128;uniqueIndex;not null" json:"reference"`
	AuthorizationURL string          `gorm:"size:512" json:"authorizationUrl,omitempty"`
	AccessCode       string          `gorm:"size:512" json:"-"`
	TransactionID    string          `gorm:"size:128" json:"transactionId,omitempty"`
	RawResponse      string          `gorm:"type:text" json:"-"`

	PaidAt    *time.Time `json:"paidAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (p *Payment) IsTerminal() bool {
	return p.Status.IsTerminal()
}
