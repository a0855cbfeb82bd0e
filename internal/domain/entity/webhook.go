package entity

import "gorm.io/datatypes"

type EventCategory string

const (
	CategoryProcess      EventCategory = "process"
	CategoryDistribution EventCategory = "distribution"
	CategoryPublication  EventCategory = "publication"
	CategorySync         EventCategory = "sync"
	CategoryOther        EventCategory = "other"
)

// ClientWebhook is a subscription of a client system to event categories.
// Delivery is at-most-once: there is no retry and no outbox.
type ClientWebhook struct {
	ID             int64          `gorm:"primaryKey"`
	ClientSystemID int64          `gorm:"not null;index"`
	WebhookURL     string         `gorm:"not null"`
	Secret         string         `gorm:"not null"` // HMAC-SHA256 key for X-Webhook-Signature
	Events         datatypes.JSON `gorm:"not null"` // JSON array of subscribed categories
	Active         bool           `gorm:"not null;default:true"`
	CreatedAt      int64          `gorm:"not null"`
	UpdatedAt      int64          `gorm:"not null;autoUpdateTime:false"`
}
