package payment

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/models"
	"github.com/promptacademy/backend/internal/queue"
	"github.com/promptacademy/backend/internal/services/referral"
	"github.com/promptacademy/backend/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyFinalized is returned when a transition is attempted on a
	// payment that is no longer pending. Handlers treat it as a no-op success
	// so duplicate approval clicks are harmless.
	ErrAlreadyFinalized = errors.New("payment already finalized")

	// ErrInvalidTarget is returned when a payment does not reference exactly
	// one purchasable item
	ErrInvalidTarget = errors.New("payment must reference exactly one of plan, course or prompt")
)

// Service handles payment submission and admin review. Approval is a single
// database transaction: entitlement grant, commission posting and the status
// flip commit together or not at all, so a crash can never leave an approved
// payment without its grant.
type Service struct {
	db       *gorm.DB
	poster   *referral.Poster
	jobQueue queue.Enqueuer
}

// NewService creates a new payment service. jobQueue may be nil; notifications
// are then skipped.
func NewService(db *gorm.DB, poster *referral.Poster, jobQueue queue.Enqueuer) *Service {
	return &Service{db: db, poster: poster, jobQueue: jobQueue}
}

// NotificationPayload is the payload for payment outcome notification jobs
type NotificationPayload struct {
	PaymentID uuid.UUID `json:"payment_id"`
	Approved  bool      `json:"approved"`
}

// ApprovalResult describes what an approval granted
type ApprovalResult struct {
	Payment         *models.Payment
	GrantedTier     models.SubscriptionTier
	GrantedCourseID *uuid.UUID
	GrantedPromptID *uuid.UUID
	Commission      *models.ReferralTransaction
}

// Submit records a pending payment for a plan, a course or a single prompt.
// The amount is taken from the referenced item, never from the client.
func (s *Service) Submit(userID uuid.UUID, planID, courseID, promptID *uuid.UUID, receiptKey string) (*models.Payment, error) {
	targets := 0
	for _, id := range []*uuid.UUID{planID, courseID, promptID} {
		if id != nil {
			targets++
		}
	}
	if targets != 1 {
		return nil, ErrInvalidTarget
	}

	pmt := models.Payment{
		ID:         uuid.New(),
		UserID:     userID,
		PlanID:     planID,
		CourseID:   courseID,
		PromptID:   promptID,
		Status:     models.PaymentStatusPending,
		Reference:  utils.GenerateReference("PAY"),
		ReceiptKey: receiptKey,
	}

	switch {
	case planID != nil:
		var plan models.PricingPlan
		if err := s.db.First(&plan, "id = ? AND active = ?", *planID, true).Error; err != nil {
			return nil, fmt.Errorf("failed to get pricing plan: %w", err)
		}
		pmt.Amount = plan.Amount
	case courseID != nil:
		var course models.Course
		if err := s.db.First(&course, "id = ? AND published = ?", *courseID, true).Error; err != nil {
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		pmt.Amount = course.Price
	default:
		var prompt models.Prompt
		if err := s.db.First(&prompt, "id = ? AND published = ?", *promptID, true).Error; err != nil {
			return nil, fmt.Errorf("failed to get prompt: %w", err)
		}
		pmt.Amount = prompt.Price
	}

	if err := s.db.Create(&pmt).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return &pmt, nil
}

// Approve moves a pending payment to approved and applies its side effects:
// exactly one grant path (plan or course) plus at most one commission posting.
// A payment that is no longer pending returns ErrAlreadyFinalized with no
// effects.
func (s *Service) Approve(paymentID, reviewerID uuid.UUID) (*ApprovalResult, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var pmt models.Payment
	if err := tx.First(&pmt, "id = ?", paymentID).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if pmt.Status != models.PaymentStatusPending {
		tx.Rollback()
		return nil, ErrAlreadyFinalized
	}

	now := time.Now()
	result := &ApprovalResult{Payment: &pmt}

	switch {
	case pmt.PlanID != nil && pmt.CourseID == nil && pmt.PromptID == nil:
		var plan models.PricingPlan
		if err := tx.First(&plan, "id = ?", *pmt.PlanID).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to get pricing plan: %w", err)
		}
		if err := GrantPlan(tx, pmt.UserID, &plan, now); err != nil {
			tx.Rollback()
			return nil, err
		}
		result.GrantedTier = plan.Tier
	case pmt.CourseID != nil && pmt.PlanID == nil && pmt.PromptID == nil:
		if err := grantCourse(tx, pmt.UserID, *pmt.CourseID, pmt.ID, now); err != nil {
			tx.Rollback()
			return nil, err
		}
		result.GrantedCourseID = pmt.CourseID
	case pmt.PromptID != nil && pmt.PlanID == nil && pmt.CourseID == nil:
		if err := grantPrompt(tx, pmt.UserID, *pmt.PromptID, &pmt.ID, now); err != nil {
			tx.Rollback()
			return nil, err
		}
		result.GrantedPromptID = pmt.PromptID
	default:
		tx.Rollback()
		return nil, ErrInvalidTarget
	}

	commission, err := s.poster.PostCommission(tx, &pmt)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to post commission: %w", err)
	}
	result.Commission = commission

	// Guarded transition; a concurrent approval loses here and rolls back its
	// own grants
	res := tx.Model(&models.Payment{}).
		Where("id = ? AND status = ?", pmt.ID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         models.PaymentStatusApproved,
			"approved_at":    now,
			"reviewed_by_id": reviewerID,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update payment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrAlreadyFinalized
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}

	pmt.Status = models.PaymentStatusApproved
	pmt.ApprovedAt = &now
	s.notify(pmt.ID, true)

	return result, nil
}

// Reject moves a pending payment to rejected. No side effects fire.
func (s *Service) Reject(paymentID, reviewerID uuid.UUID) error {
	now := time.Now()
	res := s.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         models.PaymentStatusRejected,
			"rejected_at":    now,
			"reviewed_by_id": reviewerID,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to reject payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var pmt models.Payment
		if err := s.db.First(&pmt, "id = ?", paymentID).Error; err != nil {
			return fmt.Errorf("failed to get payment: %w", err)
		}
		return ErrAlreadyFinalized
	}

	s.notify(paymentID, false)
	return nil
}

// GetPayment returns a payment by ID
func (s *Service) GetPayment(id uuid.UUID) (*models.Payment, error) {
	var pmt models.Payment
	if err := s.db.First(&pmt, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &pmt, nil
}

// ListPending returns payments awaiting review, oldest first
func (s *Service) ListPending() ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.db.Where("status = ?", models.PaymentStatusPending).Order("created_at").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}
	return payments, nil
}

// ListUserPayments returns a user's payments, newest first
func (s *Service) ListUserPayments(userID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// notify enqueues an outcome notification. Failures are logged, never
// propagated; the grant has already committed.
func (s *Service) notify(paymentID uuid.UUID, approved bool) {
	if s.jobQueue == nil {
		return
	}
	_, err := s.jobQueue.EnqueueJob(queue.JobTypePaymentNotification, NotificationPayload{
		PaymentID: paymentID,
		Approved:  approved,
	})
	if err != nil {
		log.Printf("failed to enqueue payment notification for %s: %v", paymentID, err)
	}
}
