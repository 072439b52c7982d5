package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opunath26/idea-arena-server/middlewares"
	"github.com/opunath26/idea-arena-server/models"
	"github.com/opunath26/idea-arena-server/services"
	"github.com/opunath26/idea-arena-server/utils"
)

// Handler 持有各业务 service，由 main 在启动时组装
type Handler struct {
	Contests   *services.ContestService
	Candidates *services.CandidateService
	Users      *services.UserService
	Payments   *services.PaymentService
	Tracking   *services.TrackingService
	Stats      *services.StatsService
}

// fail 将 service 层错误映射为 HTTP 状态
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		utils.Error(c, status, "internal server error")
		return
	}
	utils.Error(c, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// isAdmin 查询当前登录用户是否为管理员
func (h *Handler) isAdmin(c *gin.Context) (bool, error) {
	email := c.GetString(middlewares.CtxUserEmail)
	if email == "" {
		return false, nil
	}
	role, err := h.Users.GetRole(c.Request.Context(), email)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}
