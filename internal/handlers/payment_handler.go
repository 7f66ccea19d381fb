package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/middleware"
	"github.com/promptacademy/backend/internal/services/payment"
	"github.com/promptacademy/backend/internal/services/storage"
)

// PaymentHandler handles payment submission for end users
type PaymentHandler struct {
	paymentSvc *payment.Service
	storageSvc *storage.Service
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentSvc *payment.Service, storageSvc *storage.Service) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc, storageSvc: storageSvc}
}

// SubmitPaymentRequest represents a payment submission. Exactly one of PlanID,
// CourseID and PromptID must be set.
type SubmitPaymentRequest struct {
	PlanID     *uuid.UUID `json:"plan_id"`
	CourseID   *uuid.UUID `json:"course_id"`
	PromptID   *uuid.UUID `json:"prompt_id"`
	ReceiptKey string     `json:"receipt_key" binding:"required"`
}

// SubmitPayment records a pending payment with its uploaded receipt
func (h *PaymentHandler) SubmitPayment(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pmt, err := h.paymentSvc.Submit(user.ID, req.PlanID, req.CourseID, req.PromptID, req.ReceiptKey)
	if err != nil {
		if err == payment.ErrInvalidTarget {
			c.JSON(http.StatusBadRequest, gin.H{"error": "specify exactly one of plan_id, course_id or prompt_id"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit payment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "payment": pmt})
}

// MyPayments lists the authenticated user's payments
func (h *PaymentHandler) MyPayments(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	payments, err := h.paymentSvc.ListUserPayments(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "payments": payments})
}

// ReceiptUploadURL issues a presigned PUT URL so the client can upload its
// transfer receipt straight to object storage
func (h *PaymentHandler) ReceiptUploadURL(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.storageSvc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage not configured"})
		return
	}

	contentType := c.DefaultQuery("content_type", "image/jpeg")
	key := fmt.Sprintf("receipts/%s/%s", user.ID, uuid.New())

	url, err := h.storageSvc.SignedUploadURL(c.Request.Context(), key, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign upload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "upload_url": url, "receipt_key": key})
}
