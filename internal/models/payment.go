package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// Payment represents a manual payment awaiting admin review. Exactly one of
// PlanID, CourseID or PromptID is set; it selects the grant path on approval.
type Payment struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	User         User           `gorm:"foreignKey:UserID" json:"-"`
	PlanID       *uuid.UUID     `gorm:"type:uuid;index" json:"plan_id,omitempty"`
	Plan         *PricingPlan   `gorm:"foreignKey:PlanID" json:"-"`
	CourseID     *uuid.UUID     `gorm:"type:uuid;index" json:"course_id,omitempty"`
	Course       *Course        `gorm:"foreignKey:CourseID" json:"-"`
	PromptID     *uuid.UUID     `gorm:"type:uuid;index" json:"prompt_id,omitempty"`
	Prompt       *Prompt        `gorm:"foreignKey:PromptID" json:"-"`
	Amount       float64        `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status       PaymentStatus  `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Reference    string         `gorm:"type:varchar(100);uniqueIndex" json:"reference"`
	ReceiptKey   string         `gorm:"type:varchar(512)" json:"receipt_key"`
	ReviewedByID *uuid.UUID     `gorm:"type:uuid" json:"reviewed_by_id,omitempty"`
	ApprovedAt   *time.Time     `json:"approved_at"`
	RejectedAt   *time.Time     `json:"rejected_at"`
	CreatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID if one was not provided
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
