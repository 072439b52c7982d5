package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/opunath26/idea-arena-server/dto"
	"github.com/opunath26/idea-arena-server/mappers"
	"github.com/opunath26/idea-arena-server/middlewares"
	"github.com/opunath26/idea-arena-server/models"
	"github.com/opunath26/idea-arena-server/services"
	"github.com/opunath26/idea-arena-server/utils"
)

// ListContests GET /contests
func (h *Handler) ListContests(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if limit < 0 {
		limit = 0
	}
	status := models.SubmitStatus(c.Query("submitStatus"))
	if status != "" && !status.Valid() {
		utils.Error(c, http.StatusBadRequest, "invalid submitStatus")
		return
	}

	contests, err := h.Contests.List(c.Request.Context(), services.ContestFilter{
		CreatorEmail: c.Query("email"),
		SubmitStatus: status,
		ContestType:  c.Query("contestType"),
		Search:       c.Query("search"),
		Limit:        limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "success", contests)
}

// ListCandidateContests GET /contests/candidate
func (h *Handler) ListCandidateContests(c *gin.Context) {
	email := c.Query("candidateEmail")
	if email == "" {
		utils.Error(c, http.StatusBadRequest, "candidateEmail is required")
		return
	}
	status := models.SubmitStatus(c.Query("submitStatus"))
	if status != "" && !status.Valid() {
		utils.Error(c, http.StatusBadRequest, "invalid submitStatus")
		return
	}

	contests, err := h.Contests.ListForCandidate(c.Request.Context(), email, status)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "success", contests)
}

// GetContest GET /contests/:id
func (h *Handler) GetContest(c *gin.Context) {
	contest, err := h.Contests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "success", contest)
}

// CreateContest POST /contests，登录时以 Token 中的邮箱作为创建者
func (h *Handler) CreateContest(c *gin.Context) {
	var req dto.CreateContestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid parameters: "+err.Error())
		return
	}
	contest := mappers.MapCreateContestReq(req)
	if email := c.GetString(middlewares.CtxUserEmail); email != "" {
		contest.CreatorEmail = email
	}

	if err := h.Contests.Create(c.Request.Context(), &contest); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "contest created", gin.H{"insertedId": contest.ID, "contest": contest})
}

// UpdateContest PATCH /contests/:id，仅创建者或管理员
func (h *Handler) UpdateContest(c *gin.Context) {
	var req dto.UpdateContestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid parameters: "+err.Error())
		return
	}
	id := c.Param("id")
	if !h.authorizeContest(c, id, false) {
		return
	}

	res, err := h.Contests.Update(c.Request.Context(), id, mappers.MapUpdateContestReq(req))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "contest updated", res)
}

// UpdateContestStatus PATCH /contests/:id/status，创建者、已分配的候选人或管理员
func (h *Handler) UpdateContestStatus(c *gin.Context) {
	var req dto.UpdateContestStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid parameters: "+err.Error())
		return
	}
	id := c.Param("id")
	if !h.authorizeContest(c, id, true) {
		return
	}

	res, err := h.Contests.UpdateStatus(c.Request.Context(), id, models.SubmitStatus(req.SubmitStatus), req.TrackingID)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "contest status updated", res)
}

// AssignCandidate PATCH /contests/:id/assign (admin)
func (h *Handler) AssignCandidate(c *gin.Context) {
	var req dto.AssignCandidateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid parameters: "+err.Error())
		return
	}
	res, err := h.Contests.AssignCandidate(c.Request.Context(), c.Param("id"), req.CandidateID)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "candidate assigned", res)
}

// DeleteContest DELETE /contests/:id (admin)
func (h *Handler) DeleteContest(c *gin.Context) {
	res, err := h.Contests.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "contest deleted", res)
}

// authorizeContest 校验调用者与比赛的关系；比赛不存在时放行，由 service 返回零影响结果
func (h *Handler) authorizeContest(c *gin.Context, id string, allowCandidate bool) bool {
	admin, err := h.isAdmin(c)
	if err != nil {
		fail(c, err)
		return false
	}
	if admin {
		return true
	}

	contest, err := h.Contests.Get(c.Request.Context(), id)
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			return true
		}
		fail(c, err)
		return false
	}
	email := c.GetString(middlewares.CtxUserEmail)
	if contest.CreatorEmail == email || (allowCandidate && contest.Candidate.Email == email) {
		return true
	}
	utils.Error(c, http.StatusForbidden, "forbidden access")
	return false
}
