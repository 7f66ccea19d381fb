package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/middleware"
	"github.com/promptacademy/backend/internal/models"
	"github.com/promptacademy/backend/internal/services/catalog"
	"github.com/promptacademy/backend/internal/services/entitlement"
	"github.com/promptacademy/backend/internal/utils"
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

func setupCatalogRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handler := NewCatalogHandler(catalog.NewService(db), entitlement.NewResolver(db))

	public := router.Group("/api/catalog")
	public.Use(middleware.OptionalAuthMiddleware(db))
	{
		public.GET("/prompts", handler.ListPrompts)
		public.GET("/prompts/:slug", handler.GetPrompt)
		public.GET("/courses/:slug", handler.GetCourse)
	}
	return router
}

func createTestUser(t *testing.T, db *gorm.DB, tier models.SubscriptionTier, expiresAt *time.Time) *models.User {
	t.Helper()
	user := &models.User{
		ID:                    uuid.New(),
		Email:                 fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Username:              uuid.NewString()[:12],
		PasswordHash:          "x",
		IsActive:              true,
		SubscriptionTier:      tier,
		SubscriptionExpiresAt: expiresAt,
		ReferralCode:          uuid.NewString()[:10],
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func bearerToken(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Email, user.IsAdmin, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(router *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetPromptWithholdsPremiumContent(t *testing.T) {
	db := setupTestDB(t)
	router := setupCatalogRouter(db)

	require.NoError(t, db.Create(&models.Prompt{
		Title:     "Cold email opener",
		Slug:      "cold-email-opener",
		Content:   "the premium prompt body",
		IsPremium: true,
		Published: true,
	}).Error)

	t.Run("anonymous caller gets no content on the wire", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/catalog/prompts/cold-email-opener", "")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Prompt struct {
				Title   string `json:"title"`
				Content string `json:"content"`
			} `json:"prompt"`
			Locked bool `json:"locked"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Cold email opener", body.Prompt.Title)
		assert.Empty(t, body.Prompt.Content)
		assert.True(t, body.Locked)
		assert.NotContains(t, w.Body.String(), "the premium prompt body")
	})

	t.Run("expired subscriber gets no content on the wire", func(t *testing.T) {
		past := time.Now().Add(-24 * time.Hour)
		user := createTestUser(t, db, models.TierMonthly, &past)

		w := doRequest(router, http.MethodGet, "/api/catalog/prompts/cold-email-opener", bearerToken(t, user))
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "the premium prompt body")
	})

	t.Run("active subscriber gets the content", func(t *testing.T) {
		future := time.Now().Add(30 * 24 * time.Hour)
		user := createTestUser(t, db, models.TierMonthly, &future)

		w := doRequest(router, http.MethodGet, "/api/catalog/prompts/cold-email-opener", bearerToken(t, user))
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Prompt struct {
				Content string `json:"content"`
			} `json:"prompt"`
			Locked bool `json:"locked"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "the premium prompt body", body.Prompt.Content)
		assert.False(t, body.Locked)
	})
}

func TestListPromptsNeverIncludesContent(t *testing.T) {
	db := setupTestDB(t)
	router := setupCatalogRouter(db)

	require.NoError(t, db.Create(&models.Prompt{
		Title:     "Free sample",
		Slug:      "free-sample",
		Content:   "even free bodies stay out of listings",
		IsPremium: false,
		Published: true,
	}).Error)

	future := time.Now().Add(time.Hour)
	subscriber := createTestUser(t, db, models.TierLifetime, &future)

	w := doRequest(router, http.MethodGet, "/api/catalog/prompts", bearerToken(t, subscriber))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "even free bodies stay out of listings")
}

func TestGetCourseLocksLessonBodies(t *testing.T) {
	db := setupTestDB(t)
	router := setupCatalogRouter(db)

	course := &models.Course{Title: "Funnels", Slug: "funnels", Price: 100, Published: true}
	require.NoError(t, db.Create(course).Error)
	require.NoError(t, db.Create(&models.CourseLesson{
		CourseID: course.ID, Title: "Welcome", Position: 1,
		Body: "open to all", IsPremium: true, IsPreview: true,
	}).Error)
	require.NoError(t, db.Create(&models.CourseLesson{
		CourseID: course.ID, Title: "The build", Position: 2,
		Body: "paid lesson body", IsPremium: true,
	}).Error)

	t.Run("anonymous caller sees preview only", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/catalog/courses/funnels", "")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Lessons []struct {
				Title  string `json:"title"`
				Body   string `json:"body"`
				Locked bool   `json:"locked"`
			} `json:"lessons"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Lessons, 2)
		assert.Equal(t, "open to all", body.Lessons[0].Body)
		assert.False(t, body.Lessons[0].Locked)
		assert.Empty(t, body.Lessons[1].Body)
		assert.True(t, body.Lessons[1].Locked)
		assert.NotContains(t, w.Body.String(), "paid lesson body")
	})

	t.Run("course buyer sees everything", func(t *testing.T) {
		buyer := createTestUser(t, db, models.TierFree, nil)
		require.NoError(t, db.Create(&models.UserCourse{
			UserID:   buyer.ID,
			CourseID: course.ID,
		}).Error)

		w := doRequest(router, http.MethodGet, "/api/catalog/courses/funnels", bearerToken(t, buyer))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "paid lesson body")
	})
}
