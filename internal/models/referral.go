package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferralTransaction is the immutable ledger entry for a commission payout.
// The unique index on PaymentID guarantees at most one commission per payment.
type ReferralTransaction struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ReferrerID     uuid.UUID `gorm:"type:uuid;index;not null" json:"referrer_id"`
	Referrer       User      `gorm:"foreignKey:ReferrerID" json:"-"`
	ReferredUserID uuid.UUID `gorm:"type:uuid;index;not null" json:"referred_user_id"`
	ReferredUser   User      `gorm:"foreignKey:ReferredUserID" json:"-"`
	PaymentID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"payment_id"`
	Payment        Payment   `gorm:"foreignKey:PaymentID" json:"-"`
	Amount         float64   `gorm:"type:decimal(20,2);not null" json:"amount"`
	CreatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BeforeCreate assigns a UUID if one was not provided
func (r *ReferralTransaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
