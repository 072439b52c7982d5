package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opunath26/idea-arena-server/models"
	"gorm.io/gorm"
)

var detailReplacer = strings.NewReplacer("-", " ", "_", " ")

// TrackingService 审计日志，只提供追加和查询
type TrackingService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTrackingService(db *gorm.DB) *TrackingService {
	return &TrackingService{db: db, now: time.Now}
}

// Record 追加一条日志；tx 非空时在调用方事务内写入
func (s *TrackingService) Record(ctx context.Context, tx *gorm.DB, trackingID string, status models.SubmitStatus) (*models.TrackingLog, error) {
	if trackingID == "" {
		return nil, fmt.Errorf("%w: tracking id is empty", ErrBadRequest)
	}
	if tx == nil {
		tx = s.db
	}
	entry := models.TrackingLog{
		TrackingID: trackingID,
		Status:     string(status),
		Details:    detailReplacer.Replace(string(status)),
		CreatedAt:  s.now(),
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("record tracking log: %w", err)
	}
	return &entry, nil
}

// ListByTracking 按插入顺序返回某追踪号的全部日志
func (s *TrackingService) ListByTracking(ctx context.Context, trackingID string) ([]models.TrackingLog, error) {
	logs := make([]models.TrackingLog, 0)
	err := s.db.WithContext(ctx).
		Where("tracking_id = ?", trackingID).
		Order("id asc").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list tracking logs: %w", err)
	}
	return logs, nil
}
