package dto

import "time"

// CreateContestReq 字段名沿用前端的 camelCase
type CreateContestReq struct {
	CreatorEmail string     `json:"creatorEmail"`
	CreatorName  string     `json:"creatorName"`
	ContestTitle string     `json:"contestTitle" binding:"required"`
	ContestType  string     `json:"contestType"`
	Description  string     `json:"description"`
	Image        string     `json:"image"`
	PrizeMoney   float64    `json:"prizeMoney" binding:"gte=0"`
	CreationFee  float64    `json:"contestCreationFee" binding:"gte=0"`
	Deadline     *time.Time `json:"deadline"`
}

// UpdateContestReq 未出现的字段保持不变
type UpdateContestReq struct {
	ContestTitle *string    `json:"contestTitle"`
	ContestType  *string    `json:"contestType"`
	Description  *string    `json:"description"`
	Image        *string    `json:"image"`
	PrizeMoney   *float64   `json:"prizeMoney"`
	CreationFee  *float64   `json:"contestCreationFee"`
	Deadline     *time.Time `json:"deadline"`
}

type UpdateContestStatusReq struct {
	SubmitStatus string `json:"submitStatus" binding:"required"`
	TrackingID   string `json:"trackingId"`
}

type AssignCandidateReq struct {
	CandidateID string `json:"candidateId" binding:"required"`
}
