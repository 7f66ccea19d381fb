package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WithdrawalType represents how a referrer wants their balance paid out
type WithdrawalType string

const (
	WithdrawalTypeCash         WithdrawalType = "cash"
	WithdrawalTypeSubscription WithdrawalType = "subscription"
)

// WithdrawalStatus represents the status of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// WithdrawalRequest represents a request to pay out referral earnings, either as
// cash or converted into a subscription plan
type WithdrawalRequest struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	UserID       uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	User         User             `gorm:"foreignKey:UserID" json:"-"`
	Amount       float64          `gorm:"type:decimal(20,2);not null" json:"amount"`
	Type         WithdrawalType   `gorm:"type:varchar(20);not null" json:"type"`
	Status       WithdrawalStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PlanID       *uuid.UUID       `gorm:"type:uuid" json:"plan_id,omitempty"`
	Plan         *PricingPlan     `gorm:"foreignKey:PlanID" json:"-"`
	Notes        string           `gorm:"type:text" json:"notes"`
	ReviewedByID *uuid.UUID       `gorm:"type:uuid" json:"reviewed_by_id,omitempty"`
	ReviewedAt   *time.Time       `json:"reviewed_at"`
	CreatedAt    time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID if one was not provided
func (w *WithdrawalRequest) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
