package model

import "time"

type WishlistItem struct {
	UserID    string    `gorm:"primaryKey;size:64;not null" json:"-"`
	CakeID    string    `gorm:"primaryKey;size:64;not null" json:"cakeId"`
	Cake      *Cake     `gorm:"foreignKey:CakeID" json:"cake,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
