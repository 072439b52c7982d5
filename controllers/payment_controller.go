package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opunath26/idea-arena-server/dto"
	"github.com/opunath26/idea-arena-server/middlewares"
	"github.com/opunath26/idea-arena-server/services"
	"github.com/opunath26/idea-arena-server/utils"
)

// CreateCheckoutSession POST /payment-checkout-session
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req dto.CheckoutSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid parameters: "+err.Error())
		return
	}
	email := req.CreatorEmail
	if caller := c.GetString(middlewares.CtxUserEmail); caller != "" {
		email = caller
	}

	out, err := h.Payments.CreateCheckoutSession(c.Request.Context(), services.CheckoutInput{
		ContestID:     req.ContestID,
		CustomerEmail: email,
	})
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "checkout session created", out)
}

// PaymentSuccess PATCH /payment-success?session_id=
func (h *Handler) PaymentSuccess(c *gin.Context) {
	res, err := h.Payments.ConfirmPayment(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		fail(c, err)
		return
	}
	msg := res.Message
	if msg == "" {
		msg = "payment confirmed"
	}
	utils.Success(c, msg, res)
}

// ListPayments GET /payments?email=，非管理员只能查询自己的记录
func (h *Handler) ListPayments(c *gin.Context) {
	caller := c.GetString(middlewares.CtxUserEmail)
	email := c.Query("email")

	if email != caller {
		admin, err := h.isAdmin(c)
		if err != nil {
			fail(c, err)
			return
		}
		if !admin {
			if email != "" {
				utils.Error(c, http.StatusForbidden, "forbidden access")
				return
			}
			email = caller
		}
	}

	list, err := h.Payments.ListPayments(c.Request.Context(), email)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, "success", list)
}
