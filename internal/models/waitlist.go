package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WaitlistReceipt records that a submission was accepted by the hosted store.
// It holds no contact details.
type WaitlistReceipt struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Role      string    `gorm:"not null;index" json:"role"`
	Variant   string    `gorm:"not null" json:"variant"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (WaitlistReceipt) TableName() string {
	return "waitlist_receipts"
}

func (r *WaitlistReceipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
