package models

import (
	"time"
)

// TrackingLog 审计日志，只追加不修改；自增 ID 保证插入顺序
type TrackingLog struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	TrackingID string    `gorm:"size:64;index;not null" json:"trackingId"`
	Status     string    `gorm:"size:32;not null" json:"status"`
	Details    string    `gorm:"size:255" json:"details"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (TrackingLog) TableName() string {
	return "tracking_logs"
}
