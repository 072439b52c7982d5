package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/opunath26/idea-arena-server/models"
	"github.com/opunath26/idea-arena-server/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContestFilter struct {
	CreatorEmail string
	SubmitStatus models.SubmitStatus
	ContestType  string
	Search       string
	Limit        int
}

// ContestUpdate 比赛可编辑字段，nil 表示不修改
type ContestUpdate struct {
	Title       *string
	ContestType *string
	Description *string
	Image       *string
	PrizeMoney  *float64
	CreationFee *float64
	Deadline    *time.Time
}

type ContestService struct {
	db       *gorm.DB
	tracking *TrackingService
	stats    *StatsService
	now      func() time.Time
}

func NewContestService(db *gorm.DB, tracking *TrackingService) *ContestService {
	return &ContestService{db: db, tracking: tracking, now: time.Now}
}

// WithStats 写操作提交后清除统计缓存
func (s *ContestService) WithStats(stats *StatsService) *ContestService {
	s.stats = stats
	return s
}

// List 按创建时间倒序查询比赛
func (s *ContestService) List(ctx context.Context, f ContestFilter) ([]models.Contest, error) {
	db := s.db.WithContext(ctx).Model(&models.Contest{})
	if f.CreatorEmail != "" {
		db = db.Where("creator_email = ?", f.CreatorEmail)
	}
	if f.SubmitStatus != "" {
		db = db.Where("submit_status = ?", f.SubmitStatus)
	}
	if f.ContestType != "" {
		db = db.Where("contest_type = ?", f.ContestType)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(contest_type) LIKE ?", like, like)
	}
	if f.Limit > 0 {
		db = db.Limit(f.Limit)
	}

	contests := make([]models.Contest, 0)
	if err := db.Order("create_at desc").Find(&contests).Error; err != nil {
		return nil, fmt.Errorf("list contests: %w", err)
	}
	return contests, nil
}

// ListForCandidate 查询分配给候选人的比赛；未指定状态时排除已发奖的比赛
func (s *ContestService) ListForCandidate(ctx context.Context, candidateEmail string, status models.SubmitStatus) ([]models.Contest, error) {
	db := s.db.WithContext(ctx).Where("candidate_email = ?", candidateEmail)
	if status != "" {
		db = db.Where("submit_status = ?", status)
	} else {
		db = db.Where("submit_status <> ?", models.SubmitPrizeDelivered)
	}

	contests := make([]models.Contest, 0)
	if err := db.Order("create_at desc").Find(&contests).Error; err != nil {
		return nil, fmt.Errorf("list candidate contests: %w", err)
	}
	return contests, nil
}

func (s *ContestService) Get(ctx context.Context, id string) (*models.Contest, error) {
	var contest models.Contest
	if err := s.db.WithContext(ctx).First(&contest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contest %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get contest: %w", err)
	}
	return &contest, nil
}

// Create 新建比赛，状态固定为 pending / unpaid
func (s *ContestService) Create(ctx context.Context, contest *models.Contest) error {
	if strings.TrimSpace(contest.Title) == "" || strings.TrimSpace(contest.CreatorEmail) == "" {
		return fmt.Errorf("%w: contestTitle and creatorEmail are required", ErrBadRequest)
	}
	if contest.CreationFee < 0 || contest.PrizeMoney < 0 {
		return fmt.Errorf("%w: amounts must not be negative", ErrBadRequest)
	}

	contest.ID = ""
	contest.CreateAt = s.now()
	contest.SubmitStatus = models.SubmitPending
	contest.PaymentStatus = models.PaymentUnpaid
	contest.Candidate = models.CandidateRef{}
	contest.TrackingID = ""
	contest.ParticipantsCount = 0

	if err := s.db.WithContext(ctx).Create(contest).Error; err != nil {
		return fmt.Errorf("create contest: %w", err)
	}
	s.stats.Invalidate(ctx)
	return nil
}

// Update 修改比赛信息，只允许在 pending 阶段进行
func (s *ContestService) Update(ctx context.Context, id string, in ContestUpdate) (WriteResult, error) {
	fields := map[string]interface{}{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return WriteResult{}, fmt.Errorf("%w: contestTitle must not be empty", ErrBadRequest)
		}
		fields["title"] = *in.Title
	}
	if in.ContestType != nil {
		fields["contest_type"] = *in.ContestType
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Image != nil {
		fields["image"] = *in.Image
	}
	if in.PrizeMoney != nil {
		if *in.PrizeMoney < 0 {
			return WriteResult{}, fmt.Errorf("%w: prizeMoney must not be negative", ErrBadRequest)
		}
		fields["prize_money"] = *in.PrizeMoney
	}
	if in.CreationFee != nil {
		if *in.CreationFee < 0 {
			return WriteResult{}, fmt.Errorf("%w: contestCreationFee must not be negative", ErrBadRequest)
		}
		fields["creation_fee"] = *in.CreationFee
	}
	if in.Deadline != nil {
		fields["deadline"] = *in.Deadline
	}

	var current models.Contest
	res := s.db.WithContext(ctx).Select("id", "submit_status").Where("id = ?", id).Limit(1).Find(&current)
	if res.Error != nil {
		return WriteResult{}, fmt.Errorf("load contest: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return WriteResult{}, nil
	}
	if current.SubmitStatus != models.SubmitPending {
		return WriteResult{}, fmt.Errorf("%w: contest is %s and can no longer be edited", ErrConflict, current.SubmitStatus)
	}
	if len(fields) == 0 {
		return WriteResult{MatchedCount: 1}, nil
	}

	res = s.db.WithContext(ctx).Model(&models.Contest{}).
		Where("id = ? AND submit_status = ?", id, models.SubmitPending).
		Updates(fields)
	if res.Error != nil {
		return WriteResult{}, fmt.Errorf("update contest: %w", res.Error)
	}
	return WriteResult{MatchedCount: 1, ModifiedCount: res.RowsAffected}, nil
}

// Delete 删除比赛；仍在进行中的比赛会先释放已分配的候选人
func (s *ContestService) Delete(ctx context.Context, id string) (WriteResult, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contest, err := lockContest(tx, id)
		if err != nil {
			return err
		}
		if contest.Candidate.ID != "" && !contest.SubmitStatus.Terminal() {
			if err := releaseCandidate(tx, contest.Candidate.ID, contest.ID); err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Contest{}, "id = ?", contest.ID)
		deleted = res.RowsAffected
		return res.Error
	})
	if errors.Is(err, errNoMatch) {
		return WriteResult{}, nil
	}
	if err != nil {
		return WriteResult{}, fmt.Errorf("delete contest: %w", err)
	}

	s.stats.Invalidate(ctx)
	return WriteResult{DeletedCount: deleted}, nil
}

// AssignCandidate 绑定候选人：比赛状态、候选人 workStatus、审计日志在同一事务内完成
func (s *ContestService) AssignCandidate(ctx context.Context, id, candidateID string) (WriteResult, error) {
	if candidateID == "" {
		return WriteResult{}, fmt.Errorf("%w: candidateId is required", ErrBadRequest)
	}

	var trackingID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contest, err := lockContest(tx, id)
		if err != nil {
			return err
		}
		if !contest.SubmitStatus.CanTransition(models.SubmitCandidateAssigned) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, contest.SubmitStatus, models.SubmitCandidateAssigned)
		}

		var candidate models.Candidate
		if err := tx.First(&candidate, "id = ?", candidateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("candidate %s: %w", candidateID, ErrNotFound)
			}
			return err
		}
		if candidate.Status != models.CandidateApproved {
			return fmt.Errorf("%w: candidate is %s, not approved", ErrConflict, candidate.Status)
		}
		if candidate.WorkStatus == models.WorkAssigned && contest.Candidate.ID != candidate.ID {
			return fmt.Errorf("%w: candidate is already assigned to another contest", ErrConflict)
		}

		// 更换候选人时释放原候选人
		if prev := contest.Candidate.ID; prev != "" && prev != candidate.ID {
			if err := setWorkStatus(tx, prev, models.WorkAvailable); err != nil {
				return err
			}
		}

		trackingID = contest.TrackingID
		if trackingID == "" {
			trackingID = utils.GenerateTrackingID(s.now())
		}
		err = tx.Model(&models.Contest{}).Where("id = ?", contest.ID).Updates(map[string]interface{}{
			"submit_status":   models.SubmitCandidateAssigned,
			"candidate_id":    candidate.ID,
			"candidate_name":  candidate.Name,
			"candidate_email": candidate.Email,
			"tracking_id":     trackingID,
		}).Error
		if err != nil {
			return err
		}
		if err := setWorkStatus(tx, candidate.ID, models.WorkAssigned); err != nil {
			return err
		}
		_, err = s.tracking.Record(ctx, tx, trackingID, models.SubmitCandidateAssigned)
		return err
	})
	if errors.Is(err, errNoMatch) {
		return WriteResult{}, nil
	}
	if err != nil {
		return WriteResult{}, fmt.Errorf("assign candidate: %w", err)
	}

	s.stats.Invalidate(ctx)
	slog.Info("candidate assigned", "contest_id", id, "candidate_id", candidateID, "tracking_id", trackingID)
	return WriteResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

// UpdateStatus 推进比赛状态；trackingID 为空时沿用比赛已有的追踪号
func (s *ContestService) UpdateStatus(ctx context.Context, id string, status models.SubmitStatus, trackingID string) (WriteResult, error) {
	if !status.Valid() || status == models.SubmitPending {
		return WriteResult{}, fmt.Errorf("%w: unknown submitStatus %q", ErrBadRequest, status)
	}
	if status == models.SubmitCandidateAssigned {
		return WriteResult{}, fmt.Errorf("%w: use the assign operation to bind a candidate", ErrBadRequest)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contest, err := lockContest(tx, id)
		if err != nil {
			return err
		}
		if !contest.SubmitStatus.CanTransition(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, contest.SubmitStatus, status)
		}

		if trackingID == "" {
			trackingID = contest.TrackingID
		}
		if trackingID == "" {
			trackingID = utils.GenerateTrackingID(s.now())
		}
		err = tx.Model(&models.Contest{}).Where("id = ?", contest.ID).Updates(map[string]interface{}{
			"submit_status": status,
			"tracking_id":   trackingID,
		}).Error
		if err != nil {
			return err
		}

		if status.Terminal() && contest.Candidate.ID != "" {
			if err := setWorkStatus(tx, contest.Candidate.ID, models.WorkAvailable); err != nil {
				return err
			}
		}
		_, err = s.tracking.Record(ctx, tx, trackingID, status)
		return err
	})
	if errors.Is(err, errNoMatch) {
		return WriteResult{}, nil
	}
	if err != nil {
		return WriteResult{}, fmt.Errorf("update contest status: %w", err)
	}

	s.stats.Invalidate(ctx)
	slog.Info("contest status updated", "contest_id", id, "status", status, "tracking_id", trackingID)
	return WriteResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

// lockContest 在事务内对比赛行加锁读取，不存在时返回 errNoMatch
func lockContest(tx *gorm.DB, id string) (*models.Contest, error) {
	var contest models.Contest
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Limit(1).Find(&contest)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errNoMatch
	}
	return &contest, nil
}

// releaseCandidate 候选人没有其他进行中的比赛时恢复为 available
func releaseCandidate(tx *gorm.DB, candidateID, contestID string) error {
	var busy int64
	err := tx.Model(&models.Contest{}).
		Where("candidate_id = ? AND id <> ? AND submit_status <> ?", candidateID, contestID, models.SubmitPrizeDelivered).
		Count(&busy).Error
	if err != nil {
		return err
	}
	if busy > 0 {
		return nil
	}
	return setWorkStatus(tx, candidateID, models.WorkAvailable)
}

func setWorkStatus(tx *gorm.DB, candidateID string, status models.WorkStatus) error {
	return tx.Model(&models.Candidate{}).Where("id = ?", candidateID).Update("work_status", status).Error
}
