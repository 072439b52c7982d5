package dto

type CreateCandidateReq struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	ContestType string `json:"contestType" binding:"required"`
}

type UpdateCandidateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

type CreateUserReq struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

type UpdateUserRoleReq struct {
	Role string `json:"role" binding:"required"`
}
