package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/promptacademy/backend/internal/models"
	"github.com/promptacademy/backend/internal/queue"
	"github.com/promptacademy/backend/internal/services/email"
	paymentsvc "github.com/promptacademy/backend/internal/services/payment"
	withdrawalsvc "github.com/promptacademy/backend/internal/services/withdrawal"
	"gorm.io/gorm"
)

// NotificationJobs sends outcome emails for payment and withdrawal reviews.
// Everything here is best effort; a failed send retries through the queue and
// never touches the entitlement state that was already committed.
type NotificationJobs struct {
	db       *gorm.DB
	emailSvc *email.EmailService
}

// RegisterNotificationJobHandlers wires the notification handlers into the queue
func RegisterNotificationJobHandlers(q *queue.Queue, db *gorm.DB, emailSvc *email.EmailService) {
	j := &NotificationJobs{db: db, emailSvc: emailSvc}
	q.RegisterHandler(queue.JobTypePaymentNotification, j.ProcessPaymentNotification)
	q.RegisterHandler(queue.JobTypeWithdrawalNotification, j.ProcessWithdrawalNotification)
}

// ProcessPaymentNotification emails a user the outcome of their payment review
func (j *NotificationJobs) ProcessPaymentNotification(ctx context.Context, job queue.Job) error {
	var payload paymentsvc.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payment notification payload: %w", err)
	}

	var pmt models.Payment
	if err := j.db.First(&pmt, "id = ?", payload.PaymentID).Error; err != nil {
		return fmt.Errorf("failed to get payment: %w", err)
	}

	var user models.User
	if err := j.db.First(&user, "id = ?", pmt.UserID).Error; err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	itemName, err := j.paymentItemName(&pmt)
	if err != nil {
		return err
	}

	if payload.Approved {
		err = j.emailSvc.SendPaymentApproved(user.Email, user.FullName, itemName)
	} else {
		err = j.emailSvc.SendPaymentRejected(user.Email, user.FullName, itemName)
	}
	if err != nil {
		return fmt.Errorf("failed to send payment notification: %w", err)
	}

	log.Printf("sent payment notification for %s to %s", pmt.ID, user.Email)
	return nil
}

// ProcessWithdrawalNotification emails a referrer the outcome of their withdrawal review
func (j *NotificationJobs) ProcessWithdrawalNotification(ctx context.Context, job queue.Job) error {
	var payload withdrawalsvc.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal withdrawal notification payload: %w", err)
	}

	var req models.WithdrawalRequest
	if err := j.db.First(&req, "id = ?", payload.WithdrawalID).Error; err != nil {
		return fmt.Errorf("failed to get withdrawal request: %w", err)
	}

	var user models.User
	if err := j.db.First(&user, "id = ?", req.UserID).Error; err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := j.emailSvc.SendWithdrawalReviewed(user.Email, user.FullName, req.Amount, payload.Approved); err != nil {
		return fmt.Errorf("failed to send withdrawal notification: %w", err)
	}

	log.Printf("sent withdrawal notification for %s to %s", req.ID, user.Email)
	return nil
}

func (j *NotificationJobs) paymentItemName(pmt *models.Payment) (string, error) {
	switch {
	case pmt.PlanID != nil:
		var plan models.PricingPlan
		if err := j.db.First(&plan, "id = ?", *pmt.PlanID).Error; err != nil {
			return "", fmt.Errorf("failed to get plan: %w", err)
		}
		return plan.Name, nil
	case pmt.CourseID != nil:
		var course models.Course
		if err := j.db.First(&course, "id = ?", *pmt.CourseID).Error; err != nil {
			return "", fmt.Errorf("failed to get course: %w", err)
		}
		return course.Title, nil
	case pmt.PromptID != nil:
		var prompt models.Prompt
		if err := j.db.First(&prompt, "id = ?", *pmt.PromptID).Error; err != nil {
			return "", fmt.Errorf("failed to get prompt: %w", err)
		}
		return prompt.Title, nil
	default:
		return "your purchase", nil
	}
}
