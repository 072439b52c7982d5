package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opunath26/idea-arena-server/dto"
	"github.com/opunath26/idea-arena-server/mappers"
	"github.com/opunath26/idea-arena-server/middlewares"
	"github.com/opunath26/idea-arena-server/models"
	"github.com/opunath26/idea-arena-server/services"
	"github.com/opunath26/idea-arena-server/utils"
)

// ListCandidates GET /candidates
func (h *Handler) ListCandidates(c *gin.Context) {
	f := services.CandidateFilter{
		Status:      models.CandidateStatus(c.Query("status")),
		ContestType: c.Query("contestType"),
		WorkStatus:  models.WorkStatus(c.Query("workStatus")),
	}
	if f.Status != "" && !f.Status.Valid() {
		utils.Error(c, http.StatusBadRequest, "invalid status")
		return
	}
	if f.WorkStatus != "" && !f.WorkStatus.Valid() {
		utils.Error(c, http.StatusBadRequest, "invalid workStatus")
		return
	}

	candidates, err := h.Candidates.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "success", candidates)
}

// MyCandidate GET /candidates/me
func (h *Handler) MyCandidate(c *gin.Context) {
	candidate, err := h.Candidates.GetByEmail(c.Request.Context(), c.GetString(middlewares.CtxUserEmail))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "success", candidate)
}

// CreateCandidate POST /candidates
func (h *Handler) CreateCandidate(c *gin.Context) {
	var req dto.CreateCandidateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid parameters: "+err.Error())
		return
	}
	candidate := mappers.MapCreateCandidateReq(req)
	if email := c.GetString(middlewares.CtxUserEmail); email != "" {
		candidate.Email = email
	}

	if err := h.Candidates.Create(c.Request.Context(), &candidate); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "application submitted", gin.H{"insertedId": candidate.ID, "candidate": candidate})
}

// UpdateCandidateStatus PATCH /candidates/:id (admin)
func (h *Handler) UpdateCandidateStatus(c *gin.Context) {
	var req dto.UpdateCandidateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid parameters: "+err.Error())
		return
	}
	res, err := h.Candidates.UpdateStatus(c.Request.Context(), c.Param("id"), models.CandidateStatus(req.Status))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "candidate status updated", res)
}

// DeleteCandidate DELETE /candidates/:id，本人撤回或管理员删除
func (h *Handler) DeleteCandidate(c *gin.Context) {
	id := c.Param("id")
	admin, err := h.isAdmin(c)
	if err != nil {
		fail(c, err)
		return
	}
	if !admin {
		candidate, err := h.Candidates.Get(c.Request.Context(), id)
		switch {
		case statusFor(err) == http.StatusNotFound:
			// 不存在时交给 service 返回零影响结果
		case err != nil:
			fail(c, err)
			return
		case candidate.Email != c.GetString(middlewares.CtxUserEmail):
			utils.Error(c, http.StatusForbidden, "forbidden access")
			return
		}
	}

	res, err := h.Candidates.Delete(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "candidate deleted", res)
}
