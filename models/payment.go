package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment 每笔成功的外部交易只写入一次，TransactionID 唯一
type Payment struct {
	ID            string    `gorm:"primarykey;size:36" json:"_id"`
	Amount        float64   `gorm:"not null" json:"amount"`
	Currency      string    `gorm:"size:8" json:"currency"`
	CustomerEmail string    `gorm:"size:191;index" json:"customerEmail"`
	ContestID     string    `gorm:"size:36;index" json:"contestId"`
	ContestTitle  string    `gorm:"size:200" json:"contestTitle"`
	TransactionID string    `gorm:"size:191;uniqueIndex;not null" json:"transactionId"`
	PaymentStatus string    `gorm:"size:32" json:"paymentStatus"`
	TrackingID    string    `gorm:"size:64;index" json:"trackingId"`
	PaidAt        time.Time `json:"paidAt"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
