package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryStatus string

const (
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// DeliveryLog records one attempt to hand an inquiry to the email provider.
// Contact details are stored masked; the message body is never stored.
type DeliveryLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_delivery_created_at" json:"created_at"`

	Status            DeliveryStatus `gorm:"not null;index:idx_delivery_status" json:"status"`
	Provider          string         `gorm:"not null" json:"provider"`
	ProviderMessageID string         `json:"provider_message_id,omitempty"`

	InquiryArea string `json:"inquiry_area"`
	Company     string `json:"company"`
	MaskedEmail string `json:"masked_email"`
	MaskedPhone string `json:"masked_phone"`

	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Error     string `gorm:"type:text" json:"error,omitempty"`
}

func (d *DeliveryLog) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate keeps rows immutable.
func (d *DeliveryLog) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound
}
