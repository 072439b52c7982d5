package dto

type CheckoutSessionReq struct {
	ContestID    string `json:"contestId" binding:"required"`
	CreatorEmail string `json:"creatorEmail"`
}
