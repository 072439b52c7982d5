package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/opunath26/idea-arena-server/models"
	"github.com/opunath26/idea-arena-server/payments"
	"github.com/opunath26/idea-arena-server/utils"
	"gorm.io/gorm"
)

type PaymentOptions struct {
	Currency   string
	SiteDomain string
}

type CheckoutInput struct {
	ContestID     string
	CustomerEmail string
}

type CheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// ConfirmResult 支付确认结果；Success=false 表示会话尚未付款
type ConfirmResult struct {
	Success          bool            `json:"success"`
	AlreadyProcessed bool            `json:"alreadyProcessed,omitempty"`
	Message          string          `json:"message,omitempty"`
	TrackingID       string          `json:"trackingId,omitempty"`
	TransactionID    string          `json:"transactionId,omitempty"`
	ModifyContest    *WriteResult    `json:"modifyContest,omitempty"`
	PaymentInfo      *models.Payment `json:"paymentInfo,omitempty"`
}

type PaymentService struct {
	db        *gorm.DB
	processor payments.Processor
	tracking  *TrackingService
	locker    Locker
	stats     *StatsService
	opts      PaymentOptions
	now       func() time.Time
}

func NewPaymentService(db *gorm.DB, processor payments.Processor, tracking *TrackingService, locker Locker, opts PaymentOptions) *PaymentService {
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	opts.SiteDomain = strings.TrimRight(opts.SiteDomain, "/")
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &PaymentService{
		db:        db,
		processor: processor,
		tracking:  tracking,
		locker:    locker,
		opts:      opts,
		now:       time.Now,
	}
}

// WithStats 入账成功后清除统计缓存
func (s *PaymentService) WithStats(stats *StatsService) *PaymentService {
	s.stats = stats
	return s
}

// CreateCheckoutSession 按比赛创建费生成支付会话，本地不落库
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if in.ContestID == "" {
		return nil, fmt.Errorf("%w: contestId is required", ErrBadRequest)
	}

	var contest models.Contest
	if err := s.db.WithContext(ctx).First(&contest, "id = ?", in.ContestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contest %s: %w", in.ContestID, ErrNotFound)
		}
		return nil, fmt.Errorf("load contest: %w", err)
	}
	if contest.PaymentStatus == models.PaymentPaid {
		return nil, fmt.Errorf("%w: contest has already been paid", ErrConflict)
	}
	if contest.SubmitStatus.Terminal() {
		return nil, fmt.Errorf("%w: contest prize has already been delivered", ErrConflict)
	}

	amount := int64(math.Round(contest.CreationFee * 100))
	if amount <= 0 {
		return nil, fmt.Errorf("%w: contest has no creation fee", ErrBadRequest)
	}
	email := in.CustomerEmail
	if email == "" {
		email = contest.CreatorEmail
	}

	session, err := s.processor.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		ContestID:     contest.ID,
		ContestTitle:  contest.Title,
		CustomerEmail: email,
		UnitAmount:    amount,
		Currency:      s.opts.Currency,
		SuccessURL:    s.opts.SiteDomain + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.opts.SiteDomain + "/dashboard/payment-cancelled",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", ErrUpstream, err)
	}
	return &CheckoutResult{URL: session.URL, SessionID: session.ID}, nil
}

// ConfirmPayment 对账：同一交易号只入账一次，重复调用返回已有追踪号
func (s *PaymentService) ConfirmPayment(ctx context.Context, sessionID string) (*ConfirmResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", ErrBadRequest)
	}

	unlock, err := s.locker.Lock(ctx, "payment-session:"+sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.processor.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve session %s: %v", ErrUpstream, sessionID, err)
	}
	if session.TransactionID == "" {
		session.TransactionID = session.ID
	}

	existing, err := s.findByTransaction(ctx, session.TransactionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return alreadyProcessed(existing), nil
	}

	if !session.Paid() {
		return &ConfirmResult{Success: false, Message: "payment not completed"}, nil
	}

	contestID := session.Metadata["contestId"]
	if contestID == "" {
		return nil, fmt.Errorf("%w: session %s carries no contest reference", ErrBadRequest, sessionID)
	}

	now := s.now()
	trackingID := utils.GenerateTrackingID(now)
	payment := models.Payment{
		Amount:        float64(session.AmountTotal) / 100,
		Currency:      session.Currency,
		CustomerEmail: session.CustomerEmail,
		ContestID:     contestID,
		ContestTitle:  session.Metadata["contestTitle"],
		TransactionID: session.TransactionID,
		PaymentStatus: session.PaymentStatus,
		TrackingID:    trackingID,
		PaidAt:        now,
	}

	var modify WriteResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contest, err := lockContest(tx, contestID)
		switch {
		case errors.Is(err, errNoMatch):
			// 比赛已被删除，仍需入账
			slog.Warn("paid session references a missing contest", "contest_id", contestID, "transaction_id", payment.TransactionID)
		case err != nil:
			return err
		case !contest.SubmitStatus.CanTransition(models.SubmitDone):
			// 款项已被扣取，照常入账，比赛状态保持不变
			slog.Warn("paid session references a closed contest",
				"contest_id", contestID, "submit_status", contest.SubmitStatus, "transaction_id", payment.TransactionID)
			if payment.ContestTitle == "" {
				payment.ContestTitle = contest.Title
			}
			modify = WriteResult{MatchedCount: 1}
		default:
			if payment.ContestTitle == "" {
				payment.ContestTitle = contest.Title
			}
			res := tx.Model(&models.Contest{}).Where("id = ?", contest.ID).Updates(map[string]interface{}{
				"payment_status":     models.PaymentPaid,
				"submit_status":      models.SubmitDone,
				"tracking_id":        trackingID,
				"participants_count": gorm.Expr("participants_count + ?", 1),
			})
			if res.Error != nil {
				return res.Error
			}
			modify = WriteResult{MatchedCount: 1, ModifiedCount: res.RowsAffected}
		}

		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		_, err = s.tracking.Record(ctx, tx, trackingID, models.SubmitDone)
		return err
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 并发确认已先一步入账
		existing, lookupErr := s.findByTransaction(ctx, session.TransactionID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing != nil {
			return alreadyProcessed(existing), nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	s.stats.Invalidate(ctx)
	slog.Info("payment confirmed",
		"contest_id", contestID,
		"transaction_id", payment.TransactionID,
		"tracking_id", trackingID,
		"amount", payment.Amount,
	)
	return &ConfirmResult{
		Success:       true,
		TrackingID:    trackingID,
		TransactionID: payment.TransactionID,
		ModifyContest: &modify,
		PaymentInfo:   &payment,
	}, nil
}

// ListPayments 支付记录，按付款时间倒序；email 为空时返回全部
func (s *PaymentService) ListPayments(ctx context.Context, email string) ([]models.Payment, error) {
	db := s.db.WithContext(ctx)
	if email != "" {
		db = db.Where("customer_email = ?", email)
	}
	list := make([]models.Payment, 0)
	if err := db.Order("paid_at desc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return list, nil
}

func (s *PaymentService) findByTransaction(ctx context.Context, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	res := s.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Limit(1).Find(&payment)
	if res.Error != nil {
		return nil, fmt.Errorf("find payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &payment, nil
}

func alreadyProcessed(p *models.Payment) *ConfirmResult {
	return &ConfirmResult{
		Success:          true,
		AlreadyProcessed: true,
		Message:          "payment already processed",
		TrackingID:       p.TrackingID,
		TransactionID:    p.TransactionID,
	}
}
