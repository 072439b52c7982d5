package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmitStatus 比赛流程阶段
type SubmitStatus string

const (
	SubmitPending            SubmitStatus = "pending"
	SubmitCandidateAssigned  SubmitStatus = "candidate-assigned"
	SubmitSubmissionApproved SubmitStatus = "submission-approved"
	SubmitDone               SubmitStatus = "submit-done"
	SubmitPrizeDelivered     SubmitStatus = "prize-delivered"
)

// submitTransitions 允许的状态迁移表，未列出的迁移一律拒绝
var submitTransitions = map[SubmitStatus][]SubmitStatus{
	SubmitPending:            {SubmitCandidateAssigned, SubmitSubmissionApproved, SubmitDone},
	SubmitCandidateAssigned:  {SubmitCandidateAssigned, SubmitSubmissionApproved, SubmitDone, SubmitPrizeDelivered},
	SubmitSubmissionApproved: {SubmitDone, SubmitPrizeDelivered},
	SubmitDone:               {SubmitCandidateAssigned, SubmitSubmissionApproved, SubmitDone, SubmitPrizeDelivered},
	SubmitPrizeDelivered:     {},
}

func (s SubmitStatus) Valid() bool {
	_, ok := submitTransitions[s]
	return ok
}

// Terminal prize-delivered 之后不再有任何迁移
func (s SubmitStatus) Terminal() bool {
	return s == SubmitPrizeDelivered
}

// CanTransition 判断 from -> to 是否合法
func (s SubmitStatus) CanTransition(to SubmitStatus) bool {
	for _, next := range submitTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// CandidateRef 比赛上冗余保存的候选人信息
type CandidateRef struct {
	ID    string `gorm:"size:36" json:"candidateId,omitempty"`
	Name  string `gorm:"size:100" json:"candidateName,omitempty"`
	Email string `gorm:"size:191" json:"candidateEmail,omitempty"`
}

type Contest struct {
	ID                string        `gorm:"primarykey;size:36" json:"_id"`
	CreatorEmail      string        `gorm:"size:191;index;not null" json:"creatorEmail"`
	CreatorName       string        `gorm:"size:100" json:"creatorName,omitempty"`
	Title             string        `gorm:"size:200;not null" json:"contestTitle"`
	ContestType       string        `gorm:"size:100;index" json:"contestType"`
	Description       string        `gorm:"type:text" json:"description,omitempty"`
	Image             string        `gorm:"size:255" json:"image,omitempty"`
	PrizeMoney        float64       `json:"prizeMoney"`
	CreationFee       float64       `json:"contestCreationFee"`
	Deadline          *time.Time    `json:"deadline,omitempty"`
	CreateAt          time.Time     `gorm:"index" json:"createAt"`
	SubmitStatus      SubmitStatus  `gorm:"size:32;index;not null;default:'pending'" json:"submitStatus"`
	PaymentStatus     PaymentStatus `gorm:"size:16;not null;default:'unpaid'" json:"paymentStatus"`
	Candidate         CandidateRef  `gorm:"embedded;embeddedPrefix:candidate_" json:"candidate"`
	TrackingID        string        `gorm:"size:64;index" json:"trackingId,omitempty"`
	ParticipantsCount int           `gorm:"not null;default:0" json:"participantsCount"`
}

func (Contest) TableName() string {
	return "contests"
}

func (c *Contest) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
