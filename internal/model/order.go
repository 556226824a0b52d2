package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusAccepted   OrderStatus = "accepted" // confirmed for fulfilment: seller accepted or payment verified
	StatusOnProgress OrderStatus = "on_progress"
	StatusReady      OrderStatus = "ready"
	StatusPicked     OrderStatus = "picked"
	StatusDelivered  OrderStatus = "delivered"
)

var statusFlow = []OrderStatus{
	StatusPending,
	StatusAccepted,
	StatusOnProgress,
	StatusReady,
	StatusPicked,
	StatusDelivered,
}

func (s OrderStatus) rank() int {
	for i, st := range statusFlow {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool {
	return s.rank() >= 0
}

// Next returns the single legal successor; false for delivered and unknown statuses.
func (s OrderStatus) Next() (OrderStatus, bool) {
	r := s.rank()
	if r < 0 || r == len(statusFlow)-1 {
		return "", false
	}
	return statusFlow[r+1], true
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	next, ok := s.Next()
	return ok && next == target
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered
}

// Before reports whether s comes strictly earlier than other in the flow.
func (s OrderStatus) Before(other OrderStatus) bool {
	return s.rank() < other.rank()
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentOnline         PaymentMethod = "online_payment"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentOnline
}

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid" // cash on delivery, settled outside the system
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

func (p PaymentStatus) IsTerminal() bool {
	return p == PaymentPaid || p == PaymentFailed
}

type Order struct {
	ID               string             `gorm:"primaryKey;size:64;not null" json:"id"`
	CustomerID       string             `gorm:"size:64;index;not null" json:"customerId"`
	Items            []OrderItem        `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount      decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	Currency         string             `gorm:"size:8;not null" json:"currency"`
	Status           OrderStatus        `gorm:"size:32;index;not null" json:"status"`
	Address          string             `gorm:"type:text;not null" json:"address"`
	PaymentMethod    PaymentMethod      `gorm:"size:32;not null" json:"paymentMethod"`
	PaymentStatus    PaymentStatus      `gorm:"size:32;index;not null" json:"paymentStatus"`
	PaymentCountry   string             `gorm:"size:64" json:"paymentCountry,omitempty"`
	PaymentReference string             `gorm:"size:128;index" json:"paymentReference,omitempty"`
	History          []OrderStatusEvent `gorm:"foreignKey:OrderID" json:"statusHistory"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// OrderItem is the line snapshot taken at placement; later cake edits never reach it.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	OrderID   string          `gorm:"size:64;index;not null" json:"-"`
	CakeID    string          `gorm:"size:64;index;not null" json:"cakeId"`
	CakeName  string          `gorm:"size:128" json:"cakeName"`
	SellerID  string          `gorm:"size:64;index;not null" json:"sellerId"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderStatusEvent struct {
	ID        uint        `gorm:"primaryKey" json:"-"`
	OrderID   string      `gorm:"size:64;index;not null" json:"-"`
	Status    OrderStatus `gorm:"size:32;not null" json:"status"`
	ChangedBy string      `gorm:"size:64" json:"changedBy,omitempty"`
	At        time.Time   `gorm:"not null" json:"at"`
}

func TotalOf(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// SellerIDs returns the distinct sellers of the order in line order.
func (o *Order) SellerIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.SellerID]; ok {
			continue
		}
		seen[it.SellerID] = struct{}{}
		ids = append(ids, it.SellerID)
	}
	return ids
}

func (o *Order) HasSeller(sellerID string) bool {
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			return true
		}
	}
	return false
}

func (o *Order) ContainsCake(cakeID string) bool {
	for _, it := range o.Items {
		if it.CakeID == cakeID {
			return true
		}
	}
	return false
}

// CakeIDs returns the distinct cakes of the order in line order.
func (o *Order) CakeIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.CakeID]; ok {
			continue
		}
		seen[it.CakeID] = struct{}{}
		ids = append(ids, it.CakeID)
	}
	return ids
}
