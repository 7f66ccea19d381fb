package referral

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Payment{},
		&models.ReferralTransaction{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, referredBy *uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		ID:               uuid.New(),
		Email:            fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Username:         uuid.NewString()[:12],
		PasswordHash:     "x",
		SubscriptionTier: models.TierFree,
		ReferralCode:     uuid.NewString()[:10],
		ReferredByID:     referredBy,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createPayment(t *testing.T, db *gorm.DB, userID uuid.UUID, amount float64) *models.Payment {
	t.Helper()
	pmt := &models.Payment{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Status:    models.PaymentStatusPending,
		Reference: uuid.NewString(),
	}
	require.NoError(t, db.Create(pmt).Error)
	return pmt
}

func TestPostCommissionCreditsReferrer(t *testing.T) {
	db := setupTestDB(t)
	poster := NewPoster(db, 0.10)

	referrer := createUser(t, db, nil)
	payer := createUser(t, db, &referrer.ID)
	pmt := createPayment(t, db, payer.ID, 50000)

	record, err := poster.PostCommission(db, pmt)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, referrer.ID, record.ReferrerID)
	assert.Equal(t, payer.ID, record.ReferredUserID)
	assert.Equal(t, pmt.ID, record.PaymentID)
	assert.InDelta(t, 5000, record.Amount, 0.01)

	var updated models.User
	require.NoError(t, db.First(&updated, "id = ?", referrer.ID).Error)
	assert.InDelta(t, 5000, updated.ReferralBalance, 0.01)
}

func TestPostCommissionNoReferrer(t *testing.T) {
	db := setupTestDB(t)
	poster := NewPoster(db, 0.10)

	payer := createUser(t, db, nil)
	pmt := createPayment(t, db, payer.ID, 50000)

	record, err := poster.PostCommission(db, pmt)
	require.NoError(t, err)
	assert.Nil(t, record)

	var count int64
	require.NoError(t, db.Model(&models.ReferralTransaction{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestPostCommissionDuplicateIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	poster := NewPoster(db, 0.10)

	referrer := createUser(t, db, nil)
	payer := createUser(t, db, &referrer.ID)
	pmt := createPayment(t, db, payer.ID, 50000)

	first, err := poster.PostCommission(db, pmt)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := poster.PostCommission(db, pmt)
	require.NoError(t, err)
	assert.Nil(t, second)

	var updated models.User
	require.NoError(t, db.First(&updated, "id = ?", referrer.ID).Error)
	assert.InDelta(t, 5000, updated.ReferralBalance, 0.01)
}

func TestPostCommissionRejectsNonPositiveAmount(t *testing.T) {
	db := setupTestDB(t)
	poster := NewPoster(db, 0.10)

	payer := createUser(t, db, nil)
	pmt := &models.Payment{ID: uuid.New(), UserID: payer.ID, Amount: 0}

	_, err := poster.PostCommission(db, pmt)
	assert.Error(t, err)
}

func TestLedgerMatchesBalance(t *testing.T) {
	db := setupTestDB(t)
	poster := NewPoster(db, 0.10)

	referrer := createUser(t, db, nil)
	payer := createUser(t, db, &referrer.ID)

	amounts := []float64{50000, 100000, 25000}
	var expected float64
	for _, a := range amounts {
		pmt := createPayment(t, db, payer.ID, a)
		record, err := poster.PostCommission(db, pmt)
		require.NoError(t, err)
		require.NotNil(t, record)
		expected += record.Amount
	}

	txs, err := poster.GetTransactions(referrer.ID)
	require.NoError(t, err)
	require.Len(t, txs, len(amounts))

	var ledger float64
	for _, tx := range txs {
		ledger += tx.Amount
	}

	var updated models.User
	require.NoError(t, db.First(&updated, "id = ?", referrer.ID).Error)
	assert.InDelta(t, expected, updated.ReferralBalance, 0.01)
	assert.InDelta(t, ledger, updated.ReferralBalance, 0.01)
}

func TestGetReferees(t *testing.T) {
	db := setupTestDB(t)
	poster := NewPoster(db, 0.10)

	referrer := createUser(t, db, nil)
	createUser(t, db, &referrer.ID)
	createUser(t, db, &referrer.ID)
	createUser(t, db, nil)

	referees, err := poster.GetReferees(referrer.ID)
	require.NoError(t, err)
	assert.Len(t, referees, 2)
}
