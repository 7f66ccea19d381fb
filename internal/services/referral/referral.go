package referral

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/models"
	"gorm.io/gorm"
)

// Poster records referral commissions. The rate comes from configuration, not
// the call site, and a unique index on referral_transactions.payment_id keeps
// a payment from ever being commissioned twice.
type Poster struct {
	db   *gorm.DB
	rate float64
}

// NewPoster creates a new commission poster with the given rate (a fraction,
// e.g. 0.10 for 10%)
func NewPoster(db *gorm.DB, rate float64) *Poster {
	return &Poster{db: db, rate: rate}
}

// Rate returns the configured commission rate
func (p *Poster) Rate() float64 {
	return p.rate
}

// PostCommission credits the payer's referrer for an approved payment. It runs
// inside the caller's transaction so a failed grant never leaves a dangling
// commission. Returns the created ledger entry, or nil when no commission is
// owed (payer has no referrer, or this payment was already commissioned).
func (p *Poster) PostCommission(tx *gorm.DB, payment *models.Payment) (*models.ReferralTransaction, error) {
	if payment.Amount <= 0 {
		return nil, fmt.Errorf("invalid payment amount %.2f", payment.Amount)
	}

	var payer models.User
	if err := tx.First(&payer, "id = ?", payment.UserID).Error; err != nil {
		return nil, fmt.Errorf("failed to get paying user: %w", err)
	}
	if payer.ReferredByID == nil {
		return nil, nil
	}

	commission := payment.Amount * p.rate
	record := models.ReferralTransaction{
		ID:             uuid.New(),
		ReferrerID:     *payer.ReferredByID,
		ReferredUserID: payer.ID,
		PaymentID:      payment.ID,
		Amount:         commission,
	}

	if err := tx.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Already commissioned, idempotent outcome
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create referral transaction: %w", err)
	}

	// Atomic increment, never read-modify-write
	if err := tx.Model(&models.User{}).
		Where("id = ?", record.ReferrerID).
		UpdateColumn("referral_balance", gorm.Expr("referral_balance + ?", commission)).Error; err != nil {
		return nil, fmt.Errorf("failed to credit referrer balance: %w", err)
	}

	return &record, nil
}

// GetReferees returns users referred by the given referrer
func (p *Poster) GetReferees(referrerID uuid.UUID) ([]models.User, error) {
	var users []models.User
	if err := p.db.Where("referred_by_id = ?", referrerID).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get referees: %w", err)
	}
	return users, nil
}

// GetTransactions returns a referrer's commission ledger, newest first
func (p *Poster) GetTransactions(referrerID uuid.UUID) ([]models.ReferralTransaction, error) {
	var txs []models.ReferralTransaction
	if err := p.db.Where("referrer_id = ?", referrerID).Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to get referral transactions: %w", err)
	}
	return txs, nil
}
