package main

import (
	"github.com/robfig/cron/v3"

	"github.com/contribhub/backend/internal/config"
	"github.com/contribhub/backend/internal/handlers"
	"github.com/contribhub/backend/internal/models"
	"github.com/contribhub/backend/internal/services"
	"github.com/contribhub/backend/internal/utils"
	"github.com/contribhub/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	notificationService *services.NotificationService
	trendingService     *services.TrendingService
	trendingCron        *cron.Cron
	taskQueue           services.TaskQueue
	worker              *services.Worker
	authHandler         *handlers.AuthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize activity logger and retention cleanup
	services.InitActivityLogger(models.GetDB())
	services.StartActivityLogCleanupScheduler(models.GetDB(), cfg.Log.RetentionDays)

	// Notification delivery: durable record first, then queue + live hub
	hub := services.GetNotificationHub()
	taskQueue := services.InitTaskQueue(cfg)
	notificationService := services.NewNotificationService(models.GetDB()).WithDelivery(taskQueue, hub)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notificationService.ProcessDeliveryTask)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notificationService.ProcessDeliveryTask)
			worker.Start()
		}
	}

	// Trending snapshot refresh
	trendingService := services.NewTrendingService(models.GetDB())
	trendingCron := services.StartTrendingScheduler(trendingService)

	// Create default admin user
	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		notificationService: notificationService,
		trendingService:     trendingService,
		trendingCron:        trendingCron,
		taskQueue:           taskQueue,
		worker:              worker,
		authHandler:         authHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	if s.trendingCron != nil {
		s.trendingCron.Stop()
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All services stopped")
}
