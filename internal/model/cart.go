package model

import "time"

// Cart is the customer's single active cart. SellerID is empty while the cart
// has no items and is otherwise the seller every line belongs to.
type Cart struct {
	ID         string     `gorm:"primaryKey;size:64;not null" json:"id"`
	CustomerID string     `gorm:"size:64;uniqueIndex;not null" json:"customerId"`
	SellerID   string     `gorm:"size:64;index" json:"sellerId"`
	Version    int        `gorm:"not null" json:"-"`
	Items      []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	CartID   string `gorm:"size:64;uniqueIndex:idx_cart_cake;not null" json:"-"`
	CakeID   string `gorm:"size:64;uniqueIndex:idx_cart_cake;not null" json:"cakeId"`
	Quantity int    `gorm:"not null" json:"quantity"`
	Cake     *Cake  `gorm:"foreignKey:CakeID" json:"cake,omitempty"`
}

// Accepts reports whether a cake owned by sellerID may join the cart.
func (c *Cart) Accepts(sellerID string) bool {
	return c.SellerID == "" || c.SellerID == sellerID
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Item(cakeID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].CakeID == cakeID {
			return &c.Items[i]
		}
	}
	return nil
}
