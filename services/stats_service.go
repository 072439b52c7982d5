package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/opunath26/idea-arena-server/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const adminStatsKey = "stats:admin"

type AdminStats struct {
	TotalUsers      int64   `json:"totalUsers"`
	TotalContests   int64   `json:"totalContests"`
	PendingContests int64   `json:"pendingContests"`
	TotalRevenue    float64 `json:"totalRevenue"`
}

// StatsService 管理后台统计；配置 Redis 时结果缓存 ttl，
// 影响计数的写操作提交后由对应 service 调用 Invalidate
type StatsService struct {
	db  *gorm.DB
	rdb *redis.Client
	ttl time.Duration
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// WithCache 启用 Redis 缓存，rdb 为 nil 时保持实时计算
func (s *StatsService) WithCache(rdb *redis.Client, ttl time.Duration) *StatsService {
	s.rdb = rdb
	s.ttl = ttl
	return s
}

func (s *StatsService) AdminStats(ctx context.Context) (*AdminStats, error) {
	if s.rdb == nil {
		return s.computeAdminStats(ctx)
	}

	raw, err := s.rdb.Get(ctx, adminStatsKey).Bytes()
	if err == nil {
		var cached AdminStats
		if json.Unmarshal(raw, &cached) == nil {
			return &cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		// 缓存不可用时直接查库
		slog.Warn("read stats cache failed", "err", err)
	}

	stats, err := s.computeAdminStats(ctx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(stats); err == nil {
		if err := s.rdb.Set(ctx, adminStatsKey, b, s.ttl).Err(); err != nil {
			slog.Warn("write stats cache failed", "err", err)
		}
	}
	return stats, nil
}

// Invalidate 清除统计缓存；s 为 nil 或未启用缓存时什么也不做
func (s *StatsService) Invalidate(ctx context.Context) {
	if s == nil || s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, adminStatsKey).Err(); err != nil {
		slog.Warn("clear stats cache failed", "err", err)
	}
}

func (s *StatsService) computeAdminStats(ctx context.Context) (*AdminStats, error) {
	db := s.db.WithContext(ctx)
	var stats AdminStats

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := db.Model(&models.Contest{}).Count(&stats.TotalContests).Error; err != nil {
		return nil, fmt.Errorf("count contests: %w", err)
	}
	if err := db.Model(&models.Contest{}).Where("submit_status = ?", models.SubmitPending).Count(&stats.PendingContests).Error; err != nil {
		return nil, fmt.Errorf("count pending contests: %w", err)
	}
	if err := db.Model(&models.Payment{}).Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	return &stats, nil
}
