package model

import "time"

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	Reference   string `gorm:"size:128;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
