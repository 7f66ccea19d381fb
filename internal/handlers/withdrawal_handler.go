package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/middleware"
	"github.com/promptacademy/backend/internal/models"
	"github.com/promptacademy/backend/internal/services/withdrawal"
)

// WithdrawalHandler handles referral earnings payout requests
type WithdrawalHandler struct {
	withdrawalSvc *withdrawal.Service
}

// NewWithdrawalHandler creates a new withdrawal handler
func NewWithdrawalHandler(withdrawalSvc *withdrawal.Service) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalSvc: withdrawalSvc}
}

// RequestWithdrawalRequest represents a withdrawal request body
type RequestWithdrawalRequest struct {
	Amount float64               `json:"amount"`
	Type   models.WithdrawalType `json:"type" binding:"required"`
	PlanID *uuid.UUID            `json:"plan_id"`
}

// RequestWithdrawal records a pending withdrawal request
func (h *WithdrawalHandler) RequestWithdrawal(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req RequestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.withdrawalSvc.Request(user.ID, req.Amount, req.Type, req.PlanID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "withdrawal": w})
}

// MyWithdrawals lists the authenticated user's withdrawal requests
func (h *WithdrawalHandler) MyWithdrawals(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ws, err := h.withdrawalSvc.ListUserWithdrawals(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load withdrawals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "withdrawals": ws})
}
