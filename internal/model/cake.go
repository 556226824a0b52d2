package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CakeCategory string

const (
	CategoryBirthday    CakeCategory = "Birthday"
	CategoryWedding     CakeCategory = "Wedding"
	CategoryCustom      CakeCategory = "Custom"
	CategoryAnniversary CakeCategory = "Anniversary"
	CategoryCupcake     CakeCategory = "Cupcake"
	CategoryOther       CakeCategory = "Other"
)

func (c CakeCategory) Valid() bool {
	switch c {
	case CategoryBirthday, CategoryWedding, CategoryCustom, CategoryAnniversary, CategoryCupcake, CategoryOther:
		return true
	}
	return false
}

type Cake struct {
	ID          string          `gorm:"primaryKey;size:64;not null" json:"id"`
	Name        string          `gorm:"size:128;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Category    CakeCategory    `gorm:"size:32;index;not null" json:"category"`
	Flavor      string          `gorm:"size:64" json:"flavor"`
	Image       string          `gorm:"size:255" json:"image"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock       int             `gorm:"not null" json:"stock"`
	IsAvailable bool            `gorm:"index;not null" json:"isAvailable"`
	IsFeatured  bool            `gorm:"not null" json:"isFeatured"`
	SellerID    string          `gorm:"size:64;index;not null" json:"sellerId"` // owning seller
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
