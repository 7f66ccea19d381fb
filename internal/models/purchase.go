package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserPrompt links a user to a prompt they bought. The composite unique index is
// what makes purchase grants idempotent.
type UserPrompt struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_prompt" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID" json:"-"`
	PromptID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_prompt" json:"prompt_id"`
	Prompt      Prompt     `gorm:"foreignKey:PromptID" json:"-"`
	PaymentID   *uuid.UUID `gorm:"type:uuid" json:"payment_id,omitempty"`
	PurchasedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"purchased_at"`
}

// BeforeCreate assigns a UUID if one was not provided
func (up *UserPrompt) BeforeCreate(tx *gorm.DB) error {
	if up.ID == uuid.Nil {
		up.ID = uuid.New()
	}
	return nil
}

// UserCourse links a user to a course they bought
type UserCourse struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_course" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID" json:"-"`
	CourseID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_course" json:"course_id"`
	Course      Course     `gorm:"foreignKey:CourseID" json:"-"`
	PaymentID   *uuid.UUID `gorm:"type:uuid" json:"payment_id,omitempty"`
	PurchasedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"purchased_at"`
}

// BeforeCreate assigns a UUID if one was not provided
func (uc *UserCourse) BeforeCreate(tx *gorm.DB) error {
	if uc.ID == uuid.Nil {
		uc.ID = uuid.New()
	}
	return nil
}
