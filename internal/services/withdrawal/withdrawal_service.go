package withdrawal

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/models"
	"github.com/promptacademy/backend/internal/queue"
	"github.com/promptacademy/backend/internal/services/payment"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyFinalized is returned when reviewing a withdrawal that is no
	// longer pending
	ErrAlreadyFinalized = errors.New("withdrawal already finalized")

	// ErrInsufficientBalance is returned when the requested amount exceeds
	// the balance at review time
	ErrInsufficientBalance = errors.New("insufficient referral balance")

	// ErrPlanRequired is returned for subscription-conversion requests with
	// no target plan
	ErrPlanRequired = errors.New("subscription withdrawal requires a target plan")
)

// Service handles referral earnings payouts: cash withdrawals and conversion
// of the balance into a subscription plan
type Service struct {
	db       *gorm.DB
	jobQueue queue.Enqueuer
}

// NewService creates a new withdrawal service
func NewService(db *gorm.DB, jobQueue queue.Enqueuer) *Service {
	return &Service{db: db, jobQueue: jobQueue}
}

// NotificationPayload is the payload for withdrawal outcome notification jobs
type NotificationPayload struct {
	WithdrawalID uuid.UUID `json:"withdrawal_id"`
	Approved     bool      `json:"approved"`
}

// Request records a pending withdrawal. For subscription conversions the
// amount is the target plan's price; for cash it is whatever the user asked
// for. The balance is only reserved at approval time, so a request larger
// than the current balance is allowed to sit in the queue.
func (s *Service) Request(userID uuid.UUID, amount float64, wType models.WithdrawalType, planID *uuid.UUID) (*models.WithdrawalRequest, error) {
	req := models.WithdrawalRequest{
		ID:     uuid.New(),
		UserID: userID,
		Type:   wType,
		Status: models.WithdrawalStatusPending,
		PlanID: planID,
		Amount: amount,
	}

	switch wType {
	case models.WithdrawalTypeCash:
		if amount <= 0 {
			return nil, fmt.Errorf("invalid withdrawal amount %.2f", amount)
		}
	case models.WithdrawalTypeSubscription:
		if planID == nil {
			return nil, ErrPlanRequired
		}
		var plan models.PricingPlan
		if err := s.db.First(&plan, "id = ? AND active = ?", *planID, true).Error; err != nil {
			return nil, fmt.Errorf("failed to get pricing plan: %w", err)
		}
		req.Amount = plan.Amount
	default:
		return nil, fmt.Errorf("unknown withdrawal type %q", wType)
	}

	if err := s.db.Create(&req).Error; err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return &req, nil
}

// Approve debits the user's referral balance and, for subscription
// conversions, grants the target plan, all in one transaction. The balance is
// re-checked at approval time, never trusted from request time; a shortfall
// rejects the request and debits nothing.
func (s *Service) Approve(withdrawalID, reviewerID uuid.UUID) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var req models.WithdrawalRequest
	if err := tx.First(&req, "id = ?", withdrawalID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to get withdrawal request: %w", err)
	}
	if req.Status != models.WithdrawalStatusPending {
		tx.Rollback()
		return ErrAlreadyFinalized
	}

	now := time.Now()

	// Conditional debit: only succeeds when the live balance covers the
	// amount, so two concurrent approvals cannot overdraw
	res := tx.Model(&models.User{}).
		Where("id = ? AND referral_balance >= ?", req.UserID, req.Amount).
		UpdateColumn("referral_balance", gorm.Expr("referral_balance - ?", req.Amount))
	if res.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to debit referral balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		s.markRejected(withdrawalID, reviewerID, "insufficient balance at review time")
		return ErrInsufficientBalance
	}

	if req.Type == models.WithdrawalTypeSubscription {
		if req.PlanID == nil {
			tx.Rollback()
			return ErrPlanRequired
		}
		var plan models.PricingPlan
		if err := tx.First(&plan, "id = ?", *req.PlanID).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to get pricing plan: %w", err)
		}
		if err := payment.GrantPlan(tx, req.UserID, &plan, now); err != nil {
			tx.Rollback()
			return err
		}
	}

	upd := tx.Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", req.ID, models.WithdrawalStatusPending).
		Updates(map[string]interface{}{
			"status":         models.WithdrawalStatusApproved,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    now,
		})
	if upd.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update withdrawal status: %w", upd.Error)
	}
	if upd.RowsAffected == 0 {
		tx.Rollback()
		return ErrAlreadyFinalized
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit withdrawal approval: %w", err)
	}

	s.notify(req.ID, true)
	return nil
}

// Reject closes a pending withdrawal with no balance change
func (s *Service) Reject(withdrawalID, reviewerID uuid.UUID, notes string) error {
	res := s.db.Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", withdrawalID, models.WithdrawalStatusPending).
		Updates(map[string]interface{}{
			"status":         models.WithdrawalStatusRejected,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    time.Now(),
			"notes":          notes,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to reject withdrawal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var req models.WithdrawalRequest
		if err := s.db.First(&req, "id = ?", withdrawalID).Error; err != nil {
			return fmt.Errorf("failed to get withdrawal request: %w", err)
		}
		return ErrAlreadyFinalized
	}

	s.notify(withdrawalID, false)
	return nil
}

// ListPending returns withdrawal requests awaiting review, oldest first
func (s *Service) ListPending() ([]models.WithdrawalRequest, error) {
	var reqs []models.WithdrawalRequest
	if err := s.db.Where("status = ?", models.WithdrawalStatusPending).Order("created_at").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	return reqs, nil
}

// ListUserWithdrawals returns a user's withdrawal requests, newest first
func (s *Service) ListUserWithdrawals(userID uuid.UUID) ([]models.WithdrawalRequest, error) {
	var reqs []models.WithdrawalRequest
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return reqs, nil
}

func (s *Service) markRejected(withdrawalID, reviewerID uuid.UUID, notes string) {
	if err := s.Reject(withdrawalID, reviewerID, notes); err != nil {
		log.Printf("failed to auto-reject withdrawal %s: %v", withdrawalID, err)
	}
}

func (s *Service) notify(withdrawalID uuid.UUID, approved bool) {
	if s.jobQueue == nil {
		return
	}
	_, err := s.jobQueue.EnqueueJob(queue.JobTypeWithdrawalNotification, NotificationPayload{
		WithdrawalID: withdrawalID,
		Approved:     approved,
	})
	if err != nil {
		log.Printf("failed to enqueue withdrawal notification for %s: %v", withdrawalID, err)
	}
}
