package model

import "time"

type NotificationType string

const (
	NotifyOrder   NotificationType = "order"
	NotifyPayment NotificationType = "payment"
	NotifyReview  NotificationType = "review"
	NotifyCake    NotificationType = "cake"
)

type Notification struct {
	ID        string           `gorm:"primaryKey;size:64;not null" json:"id"`
	UserID    string           `gorm:"size:64;index;not null" json:"userId"`
	Type      NotificationType `gorm:"size:32;not null" json:"type"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Read      bool             `gorm:"column:is_read;not null" json:"read"`
	Data      map[string]any   `gorm:"serializer:json" json:"data,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}
