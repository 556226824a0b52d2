package model

import "time"

type ReviewKind string

const (
	ReviewCake   ReviewKind = "cake"
	ReviewSeller ReviewKind = "seller"
	ReviewOrder  ReviewKind = "order"
)

// Review rows are unique per (user, order, kind, cake). CakeID is empty for
// order and seller reviews, which makes those unique per (user, order).
type Review struct {
	ID            string     `gorm:"primaryKey;size:64;not null" json:"id"`
	Kind          ReviewKind `gorm:"size:16;not null;uniqueIndex:idx_review_unique,priority:3" json:"kind"`
	UserID        string     `gorm:"size:64;not null;index;uniqueIndex:idx_review_unique,priority:1" json:"userId"`
	OrderID       string     `gorm:"size:64;not null;index;uniqueIndex:idx_review_unique,priority:2" json:"orderId"`
	CakeID        string     `gorm:"size:64;index;uniqueIndex:idx_review_unique,priority:4" json:"cakeId,omitempty"`
	SellerID      string     `gorm:"size:64;index" json:"sellerId,omitempty"`
	Rating        int        `gorm:"not null" json:"rating"`
	Comment       string     `gorm:"type:text" json:"comment"`
	IsOrderReview bool       `gorm:"not null" json:"isOrderReview"`
	IsFallback    bool       `gorm:"not null" json:"isFallback"` // generated from an order review
	CreatedAt     time.Time  `json:"createdAt"`
}
