package payment

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/models"
	"github.com/promptacademy/backend/internal/services/entitlement"
	"github.com/promptacademy/backend/internal/services/referral"
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
		&models.PricingPlan{},
		&models.Course{},
		&models.Prompt{},
		&models.Payment{},
		&models.UserCourse{},
		&models.UserPrompt{},
		&models.ReferralTransaction{},
	))
	return db
}

func newTestService(db *gorm.DB) *Service {
	return NewService(db, referral.NewPoster(db, 0.10), nil)
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

func createPlan(t *testing.T, db *gorm.DB, tier models.SubscriptionTier, days int, amount float64) *models.PricingPlan {
	t.Helper()
	plan := &models.PricingPlan{
		Name:         string(tier),
		Tier:         tier,
		DurationDays: days,
		Amount:       amount,
		Active:       true,
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func createCourse(t *testing.T, db *gorm.DB, price float64) *models.Course {
	t.Helper()
	course := &models.Course{
		Title:     "Course",
		Slug:      uuid.NewString()[:12],
		Price:     price,
		Published: true,
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

func createPrompt(t *testing.T, db *gorm.DB, price float64) *models.Prompt {
	t.Helper()
	prompt := &models.Prompt{
		Title:     "Prompt",
		Slug:      uuid.NewString()[:12],
		Content:   "body",
		IsPremium: true,
		Price:     price,
		Published: true,
	}
	require.NoError(t, db.Create(prompt).Error)
	return prompt
}

func pendingPayment(t *testing.T, db *gorm.DB, svc *Service, userID uuid.UUID, planID, courseID, promptID *uuid.UUID) *models.Payment {
	t.Helper()
	pmt, err := svc.Submit(userID, planID, courseID, promptID, "receipts/test.jpg")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPending, pmt.Status)
	return pmt
}

func TestSubmitRequiresExactlyOneTarget(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	user := createUser(t, db, nil)
	plan := createPlan(t, db, models.TierMonthly, 30, 50)
	course := createCourse(t, db, 120)
	prompt := createPrompt(t, db, 20)

	_, err := svc.Submit(user.ID, nil, nil, nil, "")
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = svc.Submit(user.ID, &plan.ID, &course.ID, nil, "")
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = svc.Submit(user.ID, &plan.ID, nil, &prompt.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestSubmitTakesAmountFromCatalog(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	user := createUser(t, db, nil)
	plan := createPlan(t, db, models.TierMonthly, 30, 50)

	pmt := pendingPayment(t, db, svc, user.ID, &plan.ID, nil, nil)
	assert.Equal(t, plan.Amount, pmt.Amount)
	assert.NotEmpty(t, pmt.Reference)
}

func TestApproveMonthlyPlanGrantsTierAndCommission(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, nil)
	referrer := createUser(t, db, nil)
	buyer := createUser(t, db, &referrer.ID)
	plan := createPlan(t, db, models.TierMonthly, 30, 50000)

	pmt := pendingPayment(t, db, svc, buyer.ID, &plan.ID, nil, nil)

	result, err := svc.Approve(pmt.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierMonthly, result.GrantedTier)
	require.NotNil(t, result.Commission)
	assert.InDelta(t, 5000, result.Commission.Amount, 0.01)

	var updated models.User
	require.NoError(t, db.First(&updated, "id = ?", buyer.ID).Error)
	assert.Equal(t, models.TierMonthly, updated.SubscriptionTier)
	require.NotNil(t, updated.SubscriptionExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *updated.SubscriptionExpiresAt, time.Minute)

	var ref models.User
	require.NoError(t, db.First(&ref, "id = ?", referrer.ID).Error)
	assert.InDelta(t, 5000, ref.ReferralBalance, 0.01)

	var stored models.Payment
	require.NoError(t, db.First(&stored, "id = ?", pmt.ID).Error)
	assert.Equal(t, models.PaymentStatusApproved, stored.Status)
	assert.NotNil(t, stored.ApprovedAt)
	require.NotNil(t, stored.ReviewedByID)
	assert.Equal(t, admin.ID, *stored.ReviewedByID)
}

func TestApproveLifetimeSetsNilExpiry(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, nil)
	buyer := createUser(t, db, nil)

	// leave a stale expiry behind to prove the grant clears it
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(buyer).Updates(map[string]interface{}{
		"subscription_tier":       models.TierMonthly,
		"subscription_expires_at": past,
	}).Error)

	plan := createPlan(t, db, models.TierLifetime, 0, 200000)
	pmt := pendingPayment(t, db, svc, buyer.ID, &plan.ID, nil, nil)

	_, err := svc.Approve(pmt.ID, admin.ID)
	require.NoError(t, err)

	var updated models.User
	require.NoError(t, db.First(&updated, "id = ?", buyer.ID).Error)
	assert.Equal(t, models.TierLifetime, updated.SubscriptionTier)
	assert.Nil(t, updated.SubscriptionExpiresAt)
}

func TestApproveVIPGrantsAgencyAccess(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, nil)
	buyer := createUser(t, db, nil)
	plan := createPlan(t, db, models.TierVIP, 365, 500000)

	pmt := pendingPayment(t, db, svc, buyer.ID, &plan.ID, nil, nil)

	_, err := svc.Approve(pmt.ID, admin.ID)
	require.NoError(t, err)

	var updated models.User
	require.NoError(t, db.First(&updated, "id = ?", buyer.ID).Error)
	assert.Equal(t, models.TierVIP, updated.SubscriptionTier)
	assert.True(t, updated.HasAgencyAccess)
	require.NotNil(t, updated.AgencyAccessExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 365), *updated.AgencyAccessExpiresAt, time.Minute)
}

func TestApproveCourseCreatesPurchase(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, nil)
	buyer := createUser(t, db, nil)
	course := createCourse(t, db, 75000)

	pmt := pendingPayment(t, db, svc, buyer.ID, nil, &course.ID, nil)

	result, err := svc.Approve(pmt.ID, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, result.GrantedCourseID)
	assert.Equal(t, course.ID, *result.GrantedCourseID)

	var count int64
	require.NoError(t, db.Model(&models.UserCourse{}).
		Where("user_id = ? AND course_id = ?", buyer.ID, course.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// user's tier is untouched by a course purchase
	var updated models.User
	require.NoError(t, db.First(&updated, "id = ?", buyer.ID).Error)
	assert.Equal(t, models.TierFree, updated.SubscriptionTier)
}

func TestApproveCourseIdempotentWhenAlreadyOwned(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, nil)
	buyer := createUser(t, db, nil)
	course := createCourse(t, db, 75000)

	first := pendingPayment(t, db, svc, buyer.ID, nil, &course.ID, nil)
	_, err := svc.Approve(first.ID, admin.ID)
	require.NoError(t, err)

	// user pays again for the same course; approval must not fail on the
	// existing purchase row
	second := pendingPayment(t, db, svc, buyer.ID, nil, &course.ID, nil)
	_, err = svc.Approve(second.ID, admin.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.UserCourse{}).
		Where("user_id = ? AND course_id = ?", buyer.ID, course.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestApprovePromptCreatesPurchase(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, nil)
	buyer := createUser(t, db, nil)
	prompt := createPrompt(t, db, 15000)

	pmt := pendingPayment(t, db, svc, buyer.ID, nil, nil, &prompt.ID)
	assert.Equal(t, prompt.Price, pmt.Amount)

	result, err := svc.Approve(pmt.ID, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, result.GrantedPromptID)
	assert.Equal(t, prompt.ID, *result.GrantedPromptID)

	var record models.UserPrompt
	require.NoError(t, db.First(&record, "user_id = ? AND prompt_id = ?", buyer.ID, prompt.ID).Error)
	require.NotNil(t, record.PaymentID)
	assert.Equal(t, pmt.ID, *record.PaymentID)

	// the purchase is what unlocks the prompt for a free-tier buyer
	allowed, err := entitlement.NewResolver(db).CanAccessPrompt(buyer, prompt)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestApprovePromptIdempotentWhenAlreadyOwned(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, nil)
	buyer := createUser(t, db, nil)
	prompt := createPrompt(t, db, 15000)

	first := pendingPayment(t, db, svc, buyer.ID, nil, nil, &prompt.ID)
	_, err := svc.Approve(first.ID, admin.ID)
	require.NoError(t, err)

	second := pendingPayment(t, db, svc, buyer.ID, nil, nil, &prompt.ID)
	_, err = svc.Approve(second.ID, admin.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.UserPrompt{}).
		Where("user_id = ? AND prompt_id = ?", buyer.ID, prompt.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestApproveTwiceIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, nil)
	referrer := createUser(t, db, nil)
	buyer := createUser(t, db, &referrer.ID)
	plan := createPlan(t, db, models.TierYearly, 365, 100000)

	pmt := pendingPayment(t, db, svc, buyer.ID, &plan.ID, nil, nil)

	_, err := svc.Approve(pmt.ID, admin.ID)
	require.NoError(t, err)

	_, err = svc.Approve(pmt.ID, admin.ID)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	// the second attempt must not double-credit the referrer
	var ref models.User
	require.NoError(t, db.First(&ref, "id = ?", referrer.ID).Error)
	assert.InDelta(t, 10000, ref.ReferralBalance, 0.01)

	var txCount int64
	require.NoError(t, db.Model(&models.ReferralTransaction{}).
		Where("payment_id = ?", pmt.ID).
		Count(&txCount).Error)
	assert.EqualValues(t, 1, txCount)
}

func TestRejectThenApproveFails(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, nil)
	buyer := createUser(t, db, nil)
	plan := createPlan(t, db, models.TierMonthly, 30, 50000)

	pmt := pendingPayment(t, db, svc, buyer.ID, &plan.ID, nil, nil)

	require.NoError(t, svc.Reject(pmt.ID, admin.ID))

	_, err := svc.Approve(pmt.ID, admin.ID)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	// rejection left no grant behind
	var updated models.User
	require.NoError(t, db.First(&updated, "id = ?", buyer.ID).Error)
	assert.Equal(t, models.TierFree, updated.SubscriptionTier)

	var stored models.Payment
	require.NoError(t, db.First(&stored, "id = ?", pmt.ID).Error)
	assert.Equal(t, models.PaymentStatusRejected, stored.Status)
	assert.NotNil(t, stored.RejectedAt)
}

func TestRejectTwiceReturnsAlreadyFinalized(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, nil)
	buyer := createUser(t, db, nil)
	plan := createPlan(t, db, models.TierMonthly, 30, 50000)

	pmt := pendingPayment(t, db, svc, buyer.ID, &plan.ID, nil, nil)

	require.NoError(t, svc.Reject(pmt.ID, admin.ID))
	err := svc.Reject(pmt.ID, admin.ID)
	assert.True(t, errors.Is(err, ErrAlreadyFinalized))
}

func TestListPendingReturnsOldestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	buyer := createUser(t, db, nil)
	plan := createPlan(t, db, models.TierMonthly, 30, 50000)

	first := pendingPayment(t, db, svc, buyer.ID, &plan.ID, nil, nil)
	second := pendingPayment(t, db, svc, buyer.ID, &plan.ID, nil, nil)

	pending, err := svc.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
}
