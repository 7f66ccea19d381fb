package entitlement

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/models"
	"gorm.io/gorm"
)

// Resolver decides whether a user may access a specific content item. Every
// endpoint that serves gated content goes through it; handlers strip premium
// fields from responses when it says no, so an unentitled caller never
// receives them on the wire.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a new access resolver
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// CanAccessPrompt reports whether user (nil for unauthenticated callers) may
// read the prompt's content
func (r *Resolver) CanAccessPrompt(user *models.User, prompt *models.Prompt) (bool, error) {
	if !prompt.IsPremium {
		return true, nil
	}
	if user == nil {
		return false, nil
	}
	if user.IsAdmin {
		return true, nil
	}
	if HasActiveSubscription(user, time.Now()) {
		return true, nil
	}
	return r.hasPromptPurchase(user.ID, prompt.ID)
}

// CanAccessLesson reports whether user may view a course lesson. Preview and
// non-premium lessons are open to everyone, including anonymous visitors.
func (r *Resolver) CanAccessLesson(user *models.User, lesson *models.CourseLesson) (bool, error) {
	if !lesson.IsPremium || lesson.IsPreview {
		return true, nil
	}
	if user == nil {
		return false, nil
	}
	if user.IsAdmin {
		return true, nil
	}
	if HasActiveSubscription(user, time.Now()) {
		return true, nil
	}
	return r.hasCoursePurchase(user.ID, lesson.CourseID)
}

// CanAccessCourse reports whether user may access a course's premium lessons
// as a whole. Used by the media-signing endpoint and course detail views.
func (r *Resolver) CanAccessCourse(user *models.User, courseID uuid.UUID) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin {
		return true, nil
	}
	if HasActiveSubscription(user, time.Now()) {
		return true, nil
	}
	return r.hasCoursePurchase(user.ID, courseID)
}

func (r *Resolver) hasPromptPurchase(userID, promptID uuid.UUID) (bool, error) {
	var record models.UserPrompt
	err := r.db.Where("user_id = ? AND prompt_id = ?", userID, promptID).First(&record).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("error checking prompt purchase: %w", err)
}

func (r *Resolver) hasCoursePurchase(userID, courseID uuid.UUID) (bool, error) {
	var record models.UserCourse
	err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&record).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("error checking course purchase: %w", err)
}
