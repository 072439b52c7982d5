package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opunath26/idea-arena-server/dto"
	"github.com/opunath26/idea-arena-server/mappers"
	"github.com/opunath26/idea-arena-server/models"
	"github.com/opunath26/idea-arena-server/utils"
)

// --- 公开接口 ---

// CreateUser POST /users，首次登录时调用
func (h *Handler) CreateUser(c *gin.Context) {
	var req dto.CreateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid parameters: "+err.Error())
		return
	}
	user := mappers.MapCreateUserReq(req)
	created, err := h.Users.Create(c.Request.Context(), &user)
	if err != nil {
		fail(c, err)
		return
	}
	if !created {
		utils.Success(c, "user already exists", gin.H{"insertedId": nil})
		return
	}
	utils.Success(c, "user created", gin.H{"insertedId": user.ID})
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "success", user)
}

// GetUserRole GET /users/:id/role，参数为邮箱
func (h *Handler) GetUserRole(c *gin.Context) {
	role, err := h.Users.GetRole(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "success", gin.H{"role": role})
}

// --- 需要登录的接口 ---

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context(), c.Query("searchText"))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "success", users)
}

// --- 仅管理员可访问的接口 ---

func (h *Handler) UpdateUserRole(c *gin.Context) {
	var req dto.UpdateUserRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid role")
		return
	}
	res, err := h.Users.UpdateRole(c.Request.Context(), c.Param("id"), models.UserRole(req.Role))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "role updated", res)
}
