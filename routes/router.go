package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opunath26/idea-arena-server/controllers"
	"github.com/opunath26/idea-arena-server/middlewares"
	"github.com/opunath26/idea-arena-server/models"
)

// SetupRouter 注册所有路由；每个接口显式组合所需的权限校验
func SetupRouter(h *controllers.Handler, parser middlewares.TokenParser, users middlewares.UserLookup) *gin.Engine {
	r := gin.Default()

	auth := middlewares.JWTAuthMiddleware(parser)
	tryAuth := middlewares.JWTTryAuthMiddleware(parser)
	admin := middlewares.RoleAuthMiddleware(users, models.RoleAdmin)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "idea arena contest is running")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	contestRoutes := r.Group("/contests")
	{
		contestRoutes.GET("", h.ListContests)
		contestRoutes.GET("/candidate", h.ListCandidateContests)
		contestRoutes.GET("/:id", h.GetContest)
		contestRoutes.POST("", tryAuth, h.CreateContest)
		contestRoutes.PATCH("/:id", auth, h.UpdateContest)
		contestRoutes.PATCH("/:id/status", auth, h.UpdateContestStatus)
		contestRoutes.PATCH("/:id/assign", auth, admin, h.AssignCandidate)
		contestRoutes.DELETE("/:id", auth, admin, h.DeleteContest)
	}

	userRoutes := r.Group("/users")
	{
		userRoutes.GET("", auth, h.ListUsers)
		userRoutes.GET("/:id", h.GetUser)
		userRoutes.GET("/:id/role", h.GetUserRole)
		userRoutes.POST("", h.CreateUser)
		userRoutes.PATCH("/:id/role", auth, admin, h.UpdateUserRole)
	}

	candidateRoutes := r.Group("/candidates")
	{
		candidateRoutes.GET("", h.ListCandidates)
		candidateRoutes.GET("/me", auth, h.MyCandidate)
		candidateRoutes.POST("", tryAuth, h.CreateCandidate)
		candidateRoutes.PATCH("/:id", auth, admin, h.UpdateCandidateStatus)
		candidateRoutes.DELETE("/:id", auth, h.DeleteCandidate)
	}

	r.POST("/payment-checkout-session", tryAuth, h.CreateCheckoutSession)
	r.PATCH("/payment-success", h.PaymentSuccess)
	r.GET("/payments", auth, h.ListPayments)

	r.GET("/admin-stats", auth, admin, h.AdminStats)
	r.GET("/trackings/:trackingId/logs", h.TrackingLogs)

	return r
}
