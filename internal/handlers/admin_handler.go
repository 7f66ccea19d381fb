package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/middleware"
	"github.com/promptacademy/backend/internal/models"
	"github.com/promptacademy/backend/internal/services/catalog"
	"github.com/promptacademy/backend/internal/services/payment"
	"github.com/promptacademy/backend/internal/services/withdrawal"
)

// AdminHandler is the back-office: payment review, withdrawal review and
// catalog management. All routes behind it require the admin middleware.
type AdminHandler struct {
	paymentSvc    *payment.Service
	withdrawalSvc *withdrawal.Service
	catalogSvc    *catalog.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(paymentSvc *payment.Service, withdrawalSvc *withdrawal.Service, catalogSvc *catalog.Service) *AdminHandler {
	return &AdminHandler{
		paymentSvc:    paymentSvc,
		withdrawalSvc: withdrawalSvc,
		catalogSvc:    catalogSvc,
	}
}

// PendingPayments lists payments awaiting review
func (h *AdminHandler) PendingPayments(c *gin.Context) {
	payments, err := h.paymentSvc.ListPending()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payments": payments})
}

// ApprovePayment approves a pending payment. Re-approving an already
// finalized payment is a no-op success, so double clicks are harmless.
func (h *AdminHandler) ApprovePayment(c *gin.Context) {
	admin := middleware.CurrentUser(c)
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment ID"})
		return
	}

	result, err := h.paymentSvc.Approve(paymentID, admin.ID)
	if err != nil {
		if errors.Is(err, payment.ErrAlreadyFinalized) {
			c.JSON(http.StatusOK, gin.H{"status": "success", "message": "payment already reviewed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve payment"})
		return
	}

	resp := gin.H{"status": "success", "payment": result.Payment}
	if result.Commission != nil {
		resp["commission"] = result.Commission
	}
	c.JSON(http.StatusOK, resp)
}

// RejectPayment rejects a pending payment
func (h *AdminHandler) RejectPayment(c *gin.Context) {
	admin := middleware.CurrentUser(c)
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment ID"})
		return
	}

	if err := h.paymentSvc.Reject(paymentID, admin.ID); err != nil {
		if errors.Is(err, payment.ErrAlreadyFinalized) {
			c.JSON(http.StatusOK, gin.H{"status": "success", "message": "payment already reviewed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// PendingWithdrawals lists withdrawal requests awaiting review
func (h *AdminHandler) PendingWithdrawals(c *gin.Context) {
	ws, err := h.withdrawalSvc.ListPending()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "withdrawals": ws})
}

// ApproveWithdrawal approves a pending withdrawal; the balance is re-checked
// at this moment, not at request time
func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	admin := middleware.CurrentUser(c)
	withdrawalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal ID"})
		return
	}

	if err := h.withdrawalSvc.Approve(withdrawalID, admin.ID); err != nil {
		switch {
		case errors.Is(err, withdrawal.ErrAlreadyFinalized):
			c.JSON(http.StatusOK, gin.H{"status": "success", "message": "withdrawal already reviewed"})
		case errors.Is(err, withdrawal.ErrInsufficientBalance):
			c.JSON(http.StatusConflict, gin.H{"error": "insufficient balance; request rejected"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve withdrawal"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// RejectWithdrawalRequest represents an optional rejection note
type RejectWithdrawalRequest struct {
	Notes string `json:"notes"`
}

// RejectWithdrawal rejects a pending withdrawal
func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	admin := middleware.CurrentUser(c)
	withdrawalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal ID"})
		return
	}

	var req RejectWithdrawalRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.withdrawalSvc.Reject(withdrawalID, admin.ID, req.Notes); err != nil {
		if errors.Is(err, withdrawal.ErrAlreadyFinalized) {
			c.JSON(http.StatusOK, gin.H{"status": "success", "message": "withdrawal already reviewed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject withdrawal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// CreateCategoryRequest represents a category creation request
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateCategory creates a browsing category
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cat, err := h.catalogSvc.CreateCategory(req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "category": cat})
}

// PromptRequest represents a prompt create/update request
type PromptRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	IsPremium   bool       `json:"is_premium"`
	Price       float64    `json:"price"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Published   bool       `json:"published"`
}

func (r PromptRequest) toInput() catalog.PromptInput {
	return catalog.PromptInput{
		Title:       r.Title,
		Description: r.Description,
		Content:     r.Content,
		IsPremium:   r.IsPremium,
		Price:       r.Price,
		CategoryID:  r.CategoryID,
		Published:   r.Published,
	}
}

// CreatePrompt creates a prompt
func (h *AdminHandler) CreatePrompt(c *gin.Context) {
	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.catalogSvc.CreatePrompt(req.toInput())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create prompt"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "prompt": p})
}

// UpdatePrompt updates a prompt
func (h *AdminHandler) UpdatePrompt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prompt ID"})
		return
	}

	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.catalogSvc.UpdatePrompt(id, req.toInput())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update prompt"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "prompt": p})
}

// DeletePrompt removes a prompt from the catalog
func (h *AdminHandler) DeletePrompt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prompt ID"})
		return
	}

	if err := h.catalogSvc.DeletePrompt(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete prompt"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// CourseRequest represents a course create/update request
type CourseRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Published   bool       `json:"published"`
}

// CreateCourse creates a course
func (h *AdminHandler) CreateCourse(c *gin.Context) {
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.catalogSvc.CreateCourse(catalog.CourseInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Published:   req.Published,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create course"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "course": course})
}

// UpdateCourse updates a course
func (h *AdminHandler) UpdateCourse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course ID"})
		return
	}

	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.catalogSvc.UpdateCourse(id, catalog.CourseInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Published:   req.Published,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update course"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "course": course})
}

// LessonRequest represents a lesson create/update request
type LessonRequest struct {
	Title     string `json:"title" binding:"required"`
	Position  int    `json:"position"`
	Body      string `json:"body"`
	VideoKey  string `json:"video_key"`
	IsPremium bool   `json:"is_premium"`
	IsPreview bool   `json:"is_preview"`
}

// AddLesson appends a lesson to a course
func (h *AdminHandler) AddLesson(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course ID"})
		return
	}

	var req LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lesson, err := h.catalogSvc.AddLesson(courseID, catalog.LessonInput{
		Title:     req.Title,
		Position:  req.Position,
		Body:      req.Body,
		VideoKey:  req.VideoKey,
		IsPremium: req.IsPremium,
		IsPreview: req.IsPreview,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create lesson"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "lesson": lesson})
}

// UpdateLesson updates a lesson; this is how video keys get attached and
// lesson order gets changed after creation
func (h *AdminHandler) UpdateLesson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson ID"})
		return
	}

	var req LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lesson, err := h.catalogSvc.UpdateLesson(id, catalog.LessonInput{
		Title:     req.Title,
		Position:  req.Position,
		Body:      req.Body,
		VideoKey:  req.VideoKey,
		IsPremium: req.IsPremium,
		IsPreview: req.IsPreview,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lesson"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "lesson": lesson})
}

// CreatePlanRequest represents a pricing plan creation request
type CreatePlanRequest struct {
	Name         string                  `json:"name" binding:"required"`
	Tier         models.SubscriptionTier `json:"tier" binding:"required"`
	DurationDays int                     `json:"duration_days"`
	Amount       float64                 `json:"amount" binding:"required,gt=0"`
	Description  string                  `json:"description"`
}

// CreatePlan creates a pricing plan
func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.catalogSvc.CreatePlan(req.Name, req.Tier, req.DurationDays, req.Amount, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create plan"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "plan": plan})
}
