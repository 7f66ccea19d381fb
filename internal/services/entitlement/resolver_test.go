package entitlement

import (
	"fmt"
	"testing"
	"time"

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
		&models.Category{},
		&models.Prompt{},
		&models.Course{},
		&models.CourseLesson{},
		&models.UserPrompt{},
		&models.UserCourse{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, tier models.SubscriptionTier, expiresAt *time.Time) *models.User {
	t.Helper()
	user := &models.User{
		ID:                    uuid.New(),
		Email:                 fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Username:              uuid.NewString()[:12],
		PasswordHash:          "x",
		SubscriptionTier:      tier,
		SubscriptionExpiresAt: expiresAt,
		ReferralCode:          uuid.NewString()[:10],
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCanAccessPrompt(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db)

	freePrompt := &models.Prompt{Title: "Free", Slug: "free", IsPremium: false, Published: true}
	premiumPrompt := &models.Prompt{Title: "Premium", Slug: "premium", Content: "secret", IsPremium: true, Published: true}
	require.NoError(t, db.Create(freePrompt).Error)
	require.NoError(t, db.Create(premiumPrompt).Error)

	t.Run("free prompt is open to anonymous visitors", func(t *testing.T) {
		ok, err := resolver.CanAccessPrompt(nil, freePrompt)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("premium prompt is closed to anonymous visitors", func(t *testing.T) {
		ok, err := resolver.CanAccessPrompt(nil, premiumPrompt)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("free tier user without purchase is denied", func(t *testing.T) {
		user := createTestUser(t, db, models.TierFree, nil)
		ok, err := resolver.CanAccessPrompt(user, premiumPrompt)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("active monthly subscriber is allowed", func(t *testing.T) {
		future := time.Now().Add(30 * 24 * time.Hour)
		user := createTestUser(t, db, models.TierMonthly, &future)
		ok, err := resolver.CanAccessPrompt(user, premiumPrompt)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired subscriber falls back to purchases", func(t *testing.T) {
		past := time.Now().Add(-24 * time.Hour)
		user := createTestUser(t, db, models.TierMonthly, &past)

		ok, err := resolver.CanAccessPrompt(user, premiumPrompt)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, db.Create(&models.UserPrompt{
			UserID:   user.ID,
			PromptID: premiumPrompt.ID,
		}).Error)

		ok, err = resolver.CanAccessPrompt(user, premiumPrompt)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("admin bypasses gating", func(t *testing.T) {
		user := createTestUser(t, db, models.TierFree, nil)
		user.IsAdmin = true
		ok, err := resolver.CanAccessPrompt(user, premiumPrompt)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestCanAccessLesson(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db)

	course := &models.Course{Title: "Course", Slug: "course", Published: true}
	require.NoError(t, db.Create(course).Error)

	preview := &models.CourseLesson{CourseID: course.ID, Title: "Intro", Position: 1, IsPremium: true, IsPreview: true}
	locked := &models.CourseLesson{CourseID: course.ID, Title: "Deep dive", Position: 2, IsPremium: true}
	require.NoError(t, db.Create(preview).Error)
	require.NoError(t, db.Create(locked).Error)

	t.Run("preview lesson is open to anonymous visitors", func(t *testing.T) {
		ok, err := resolver.CanAccessLesson(nil, preview)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("premium lesson is closed without entitlement", func(t *testing.T) {
		user := createTestUser(t, db, models.TierFree, nil)
		ok, err := resolver.CanAccessLesson(user, locked)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("course purchase unlocks every lesson in the course", func(t *testing.T) {
		user := createTestUser(t, db, models.TierFree, nil)
		require.NoError(t, db.Create(&models.UserCourse{
			UserID:   user.ID,
			CourseID: course.ID,
		}).Error)

		ok, err := resolver.CanAccessLesson(user, locked)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("lifetime subscriber is allowed", func(t *testing.T) {
		user := createTestUser(t, db, models.TierLifetime, nil)
		ok, err := resolver.CanAccessLesson(user, locked)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestCanAccessCourse(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db)

	course := &models.Course{Title: "Course", Slug: "course-2", Published: true}
	require.NoError(t, db.Create(course).Error)

	ok, err := resolver.CanAccessCourse(nil, course.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	buyer := createTestUser(t, db, models.TierFree, nil)
	require.NoError(t, db.Create(&models.UserCourse{UserID: buyer.ID, CourseID: course.ID}).Error)

	ok, err = resolver.CanAccessCourse(buyer, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
