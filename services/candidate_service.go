package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/opunath26/idea-arena-server/models"
	"gorm.io/gorm"
)

type CandidateFilter struct {
	Status      models.CandidateStatus
	ContestType string
	WorkStatus  models.WorkStatus
}

type CandidateService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCandidateService(db *gorm.DB) *CandidateService {
	return &CandidateService{db: db, now: time.Now}
}

func (s *CandidateService) List(ctx context.Context, f CandidateFilter) ([]models.Candidate, error) {
	db := s.db.WithContext(ctx).Model(&models.Candidate{})
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.ContestType != "" {
		db = db.Where("contest_type = ?", f.ContestType)
	}
	if f.WorkStatus != "" {
		db = db.Where("work_status = ?", f.WorkStatus)
	}

	candidates := make([]models.Candidate, 0)
	if err := db.Order("created_at desc").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return candidates, nil
}

func (s *CandidateService) Get(ctx context.Context, id string) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := s.db.WithContext(ctx).First(&candidate, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return &candidate, nil
}

// GetByEmail 返回该邮箱最新的一条申请
func (s *CandidateService) GetByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := s.db.WithContext(ctx).Where("email = ?", email).Order("created_at desc").First(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("candidate %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return &candidate, nil
}

// Create 候选人自助申请；同一邮箱已有待审核或已通过的申请时拒绝
func (s *CandidateService) Create(ctx context.Context, candidate *models.Candidate) error {
	candidate.Email = strings.ToLower(strings.TrimSpace(candidate.Email))
	if candidate.Email == "" {
		return fmt.Errorf("%w: email is required", ErrBadRequest)
	}

	var open int64
	err := s.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("email = ? AND status IN ?", candidate.Email, []models.CandidateStatus{models.CandidatePending, models.CandidateApproved}).
		Count(&open).Error
	if err != nil {
		return fmt.Errorf("check existing application: %w", err)
	}
	if open > 0 {
		return fmt.Errorf("%w: an application for %s already exists", ErrConflict, candidate.Email)
	}

	candidate.ID = ""
	candidate.Status = models.CandidatePending
	candidate.WorkStatus = models.WorkAvailable
	candidate.CreatedAt = s.now()
	if err := s.db.WithContext(ctx).Create(candidate).Error; err != nil {
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

// UpdateStatus 审核候选人；通过时把对应用户提升为 candidate，两次写入同一事务
func (s *CandidateService) UpdateStatus(ctx context.Context, id string, status models.CandidateStatus) (WriteResult, error) {
	if !status.Valid() {
		return WriteResult{}, fmt.Errorf("%w: unknown status %q", ErrBadRequest, status)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidate models.Candidate
		res := tx.Where("id = ?", id).Limit(1).Find(&candidate)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNoMatch
		}

		err := tx.Model(&models.Candidate{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":      status,
			"work_status": models.WorkAvailable,
		}).Error
		if err != nil {
			return err
		}
		if status != models.CandidateApproved {
			return nil
		}

		var user models.User
		if err := tx.Where("email = ?", candidate.Email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s: %w", candidate.Email, ErrNotFound)
			}
			return err
		}
		// 管理员不降级
		if user.Role == models.RoleAdmin {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Update("role", models.RoleCandidate).Error
	})
	if errors.Is(err, errNoMatch) {
		return WriteResult{}, nil
	}
	if err != nil {
		return WriteResult{}, fmt.Errorf("update candidate status: %w", err)
	}

	slog.Info("candidate status updated", "candidate_id", id, "status", status)
	return WriteResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

// Delete 删除申请；正在承接比赛的候选人不能删除
func (s *CandidateService) Delete(ctx context.Context, id string) (WriteResult, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND work_status <> ?", id, models.WorkAssigned).
		Delete(&models.Candidate{})
	if res.Error != nil {
		return WriteResult{}, fmt.Errorf("delete candidate: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return WriteResult{DeletedCount: res.RowsAffected}, nil
	}

	var assigned int64
	if err := s.db.WithContext(ctx).Model(&models.Candidate{}).Where("id = ?", id).Count(&assigned).Error; err != nil {
		return WriteResult{}, fmt.Errorf("delete candidate: %w", err)
	}
	if assigned > 0 {
		return WriteResult{}, fmt.Errorf("%w: candidate is assigned to a contest", ErrConflict)
	}
	return WriteResult{}, nil
}
