package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionTier represents a user's subscription category
type SubscriptionTier string

const (
	TierFree     SubscriptionTier = "free"
	TierSingle   SubscriptionTier = "single"
	TierMonthly  SubscriptionTier = "monthly"
	TierYearly   SubscriptionTier = "yearly"
	TierLifetime SubscriptionTier = "lifetime"
	TierVIP      SubscriptionTier = "vip"
)

// User represents a user in the system
type User struct {
	ID                    uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	Email                 string           `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username              string           `gorm:"type:varchar(50);uniqueIndex" json:"username"`
	FullName              string           `gorm:"type:varchar(200)" json:"full_name"`
	PasswordHash          string           `gorm:"type:varchar(255);not null" json:"-"`
	IsAdmin               bool             `gorm:"default:false" json:"is_admin"`
	IsActive              bool             `gorm:"default:true" json:"is_active"`
	SubscriptionTier      SubscriptionTier `gorm:"type:varchar(20);not null;default:'free'" json:"subscription_tier"`
	SubscriptionExpiresAt *time.Time       `json:"subscription_expires_at"`
	HasAgencyAccess       bool             `gorm:"default:false" json:"has_agency_access"`
	AgencyAccessExpiresAt *time.Time       `json:"agency_access_expires_at"`
	ReferralCode          string           `gorm:"type:varchar(20);uniqueIndex;not null" json:"referral_code"`
	ReferralBalance       float64          `gorm:"type:decimal(20,2);not null;default:0" json:"referral_balance"`
	ReferredByID          *uuid.UUID       `gorm:"type:uuid;index" json:"referred_by_id,omitempty"`
	ReferredBy            *User            `gorm:"foreignKey:ReferredByID" json:"-"`
	LastLoginAt           *time.Time       `json:"last_login_at"`
	CreatedAt             time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt             time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt             gorm.DeletedAt   `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID if one was not provided
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
