package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/models"
	"gorm.io/gorm"
)

// GrantPlan writes a plan's tier onto the user's profile inside the caller's
// transaction. Lifetime plans get a nil expiry; VIP additionally grants agency
// access with the same expiry. Exported because withdrawal conversion grants
// plans through the same path.
func GrantPlan(tx *gorm.DB, userID uuid.UUID, plan *models.PricingPlan, now time.Time) error {
	var expiresAt *time.Time
	if plan.Tier != models.TierLifetime {
		t := now.AddDate(0, 0, plan.DurationDays)
		expiresAt = &t
	}

	updates := map[string]interface{}{
		"subscription_tier":       plan.Tier,
		"subscription_expires_at": expiresAt,
	}
	if plan.Tier == models.TierVIP {
		updates["has_agency_access"] = true
		updates["agency_access_expires_at"] = expiresAt
	}

	res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to grant plan: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to grant plan: user %s not found", userID)
	}
	return nil
}

// grantCourse records a course purchase. A duplicate insert means the user
// already owns the course; that is a success, not an error.
func grantCourse(tx *gorm.DB, userID, courseID, paymentID uuid.UUID, now time.Time) error {
	record := models.UserCourse{
		ID:          uuid.New(),
		UserID:      userID,
		CourseID:    courseID,
		PaymentID:   &paymentID,
		PurchasedAt: now,
	}
	if err := tx.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to grant course access: %w", err)
	}
	return nil
}

// grantPrompt records a prompt purchase with the same idempotent semantics as
// course grants
func grantPrompt(tx *gorm.DB, userID, promptID uuid.UUID, paymentID *uuid.UUID, now time.Time) error {
	record := models.UserPrompt{
		ID:          uuid.New(),
		UserID:      userID,
		PromptID:    promptID,
		PaymentID:   paymentID,
		PurchasedAt: now,
	}
	if err := tx.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to grant prompt access: %w", err)
	}
	return nil
}
