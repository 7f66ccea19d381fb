package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/promptacademy/backend/internal/config"
	"github.com/promptacademy/backend/internal/handlers"
	"github.com/promptacademy/backend/internal/middleware"
	"github.com/promptacademy/backend/internal/queue"
	"github.com/promptacademy/backend/internal/services/catalog"
	"github.com/promptacademy/backend/internal/services/entitlement"
	"github.com/promptacademy/backend/internal/services/payment"
	"github.com/promptacademy/backend/internal/services/referral"
	"github.com/promptacademy/backend/internal/services/storage"
	"github.com/promptacademy/backend/internal/services/withdrawal"
)

// RegisterRoutes configures all API routes
func RegisterRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, jobQueue *queue.Queue, storageSvc *storage.Service) {
	resolver := entitlement.NewResolver(db)
	catalogSvc := catalog.NewService(db)
	poster := referral.NewPoster(db, cfg.Referral.CommissionRate)
	paymentSvc := payment.NewService(db, poster, jobQueue)
	withdrawalSvc := withdrawal.NewService(db, jobQueue)

	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(catalogSvc, resolver)
	paymentHandler := handlers.NewPaymentHandler(paymentSvc, storageSvc)
	referralHandler := handlers.NewReferralHandler(poster)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalSvc)
	mediaHandler := handlers.NewMediaHandler(catalogSvc, resolver, storageSvc)
	adminHandler := handlers.NewAdminHandler(paymentSvc, withdrawalSvc, catalogSvc)

	// Auth
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
	}
	router.GET("/api/me", middleware.AuthMiddleware(db), authHandler.Me)

	// Public catalog; optional auth unlocks entitled content on the same routes
	catalogGroup := router.Group("/api/catalog")
	catalogGroup.Use(middleware.OptionalAuthMiddleware(db))
	{
		catalogGroup.GET("/categories", catalogHandler.ListCategories)
		catalogGroup.GET("/plans", catalogHandler.ListPlans)
		catalogGroup.GET("/prompts", catalogHandler.ListPrompts)
		catalogGroup.GET("/prompts/:slug", catalogHandler.GetPrompt)
		catalogGroup.GET("/courses", catalogHandler.ListCourses)
		catalogGroup.GET("/courses/:slug", catalogHandler.GetCourse)
	}

	// Gated media; anonymous callers are rejected by the resolver, not the router
	router.GET("/api/lessons/:lessonID/video", middleware.OptionalAuthMiddleware(db), mediaHandler.LessonVideoURL)

	// Authenticated user surface
	userGroup := router.Group("/api")
	userGroup.Use(middleware.AuthMiddleware(db))
	{
		userGroup.POST("/payments", paymentHandler.SubmitPayment)
		userGroup.GET("/payments", paymentHandler.MyPayments)
		userGroup.GET("/payments/receipt-upload-url", paymentHandler.ReceiptUploadURL)
		userGroup.GET("/referrals", referralHandler.MyReferrals)
		userGroup.POST("/withdrawals", withdrawalHandler.RequestWithdrawal)
		userGroup.GET("/withdrawals", withdrawalHandler.MyWithdrawals)
	}

	// Admin back-office
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(db), middleware.AdminMiddleware())
	{
		adminGroup.GET("/payments/pending", adminHandler.PendingPayments)
		adminGroup.POST("/payments/:id/approve", adminHandler.ApprovePayment)
		adminGroup.POST("/payments/:id/reject", adminHandler.RejectPayment)

		adminGroup.GET("/withdrawals/pending", adminHandler.PendingWithdrawals)
		adminGroup.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
		adminGroup.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)

		adminGroup.POST("/categories", adminHandler.CreateCategory)
		adminGroup.POST("/prompts", adminHandler.CreatePrompt)
		adminGroup.PUT("/prompts/:id", adminHandler.UpdatePrompt)
		adminGroup.DELETE("/prompts/:id", adminHandler.DeletePrompt)
		adminGroup.POST("/courses", adminHandler.CreateCourse)
		adminGroup.PUT("/courses/:id", adminHandler.UpdateCourse)
		adminGroup.POST("/courses/:id/lessons", adminHandler.AddLesson)
		adminGroup.PUT("/lessons/:id", adminHandler.UpdateLesson)
		adminGroup.POST("/plans", adminHandler.CreatePlan)
	}
}
