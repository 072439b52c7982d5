package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "pending"
	CandidateApproved CandidateStatus = "approved"
	CandidateRejected CandidateStatus = "rejected"
)

func (s CandidateStatus) Valid() bool {
	switch s {
	case CandidatePending, CandidateApproved, CandidateRejected:
		return true
	}
	return false
}

// WorkStatus 候选人是否正在承接比赛
type WorkStatus string

const (
	WorkAvailable WorkStatus = "available"
	WorkAssigned  WorkStatus = "assigned"
)

func (s WorkStatus) Valid() bool {
	return s == WorkAvailable || s == WorkAssigned
}

type Candidate struct {
	ID          string          `gorm:"primarykey;size:36" json:"_id"`
	Name        string          `gorm:"size:100" json:"name"`
	Email       string          `gorm:"size:191;index;not null" json:"email"`
	ContestType string          `gorm:"size:100;index" json:"contestType"`
	Status      CandidateStatus `gorm:"size:16;not null;default:'pending'" json:"status"`
	WorkStatus  WorkStatus      `gorm:"size:16;not null;default:'available'" json:"workStatus"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (Candidate) TableName() string {
	return "candidates"
}

func (c *Candidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
