package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/opunath26/idea-arena-server/models"
	"github.com/opunath26/idea-arena-server/services"
	"github.com/opunath26/idea-arena-server/utils"
)

const (
	CtxUserEmail = "user_email"
	CtxUserRole  = "user_role"
)

type TokenParser interface {
	ParseToken(token string) (*utils.Claims, error)
}

type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// JWTAuthMiddleware 验证 Bearer Token，成功后把邮箱放入上下文
func JWTAuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			utils.Error(c, http.StatusUnauthorized, "unauthorized access")
			c.Abort()
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.Error(c, http.StatusUnauthorized, "unauthorized access")
			c.Abort()
			return
		}

		claims, err := parser.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			slog.Debug("token rejected", "err", err)
			utils.Error(c, http.StatusUnauthorized, "unauthorized access")
			c.Abort()
			return
		}
		c.Set(CtxUserEmail, claims.Email)
		c.Next()
	}
}

// RoleAuthMiddleware 查询用户角色，不在 requiredRoles 内返回 403；须排在 JWTAuthMiddleware 之后
func RoleAuthMiddleware(users UserLookup, requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(CtxUserEmail)
		if email == "" {
			utils.Error(c, http.StatusUnauthorized, "unauthorized access")
			c.Abort()
			return
		}

		user, err := users.FindByEmail(c.Request.Context(), email)
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(c, http.StatusForbidden, "forbidden access")
			c.Abort()
			return
		}
		if err != nil {
			slog.Error("role lookup failed", "email", email, "err", err)
			utils.Error(c, http.StatusInternalServerError, "internal server error")
			c.Abort()
			return
		}

		hasPermission := false
		for _, requiredRole := range requiredRoles {
			if user.Role == requiredRole {
				hasPermission = true
				break
			}
		}
		if !hasPermission {
			utils.Error(c, http.StatusForbidden, "forbidden access")
			c.Abort()
			return
		}
		c.Set(CtxUserRole, user.Role)
		c.Next()
	}
}

// JWTTryAuthMiddleware 尝试解析 Token，失败也继续执行
func JWTTryAuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.Request.Header.Get("Authorization"), " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			if claims, err := parser.ParseToken(strings.TrimSpace(parts[1])); err == nil {
				c.Set(CtxUserEmail, claims.Email)
			}
		}
		c.Next()
	}
}
