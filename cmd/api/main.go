package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/promptacademy/backend/internal/config"
	"github.com/promptacademy/backend/internal/database"
	"github.com/promptacademy/backend/internal/database/migrations"
	"github.com/promptacademy/backend/internal/jobs"
	"github.com/promptacademy/backend/internal/queue"
	"github.com/promptacademy/backend/internal/routes"
	"github.com/promptacademy/backend/internal/services/email"
	"github.com/promptacademy/backend/internal/services/storage"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis is a wake-up channel for the job queue; the queue degrades to
	// polling without it
	var rdb *redis.Client
	if opts, err := redis.ParseURL(cfg.Redis.URL); err == nil {
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		opts.DB = cfg.Redis.DB
		rdb = redis.NewClient(opts)
	} else {
		log.Printf("Warning: invalid REDIS_URL, queue falls back to polling: %v", err)
	}

	jobQueue := queue.NewQueue(db, rdb)

	emailSvc := email.NewEmailService(cfg.SMTP, cfg.FrontendURL)
	jobs.RegisterNotificationJobHandlers(jobQueue, db, emailSvc)
	go jobQueue.ProcessJobs()

	sweeper := jobs.StartExpirySweep(db)
	defer sweeper.Stop()

	var storageSvc *storage.Service
	if cfg.Storage.AccessKeyID != "" {
		storageSvc, err = storage.New(cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to init storage: %v", err)
		}
	} else {
		log.Println("Warning: storage not configured, media and receipt endpoints disabled")
	}

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	routes.RegisterRoutes(router, db, cfg, jobQueue, storageSvc)

	log.Printf("API server running on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
