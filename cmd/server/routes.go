package main

import (
	"github.com/gin-gonic/gin"

	"github.com/contribhub/backend/internal/handlers"
	"github.com/contribhub/backend/internal/middleware"
	"github.com/contribhub/backend/internal/models"
	"github.com/contribhub/backend/internal/services"
	"github.com/contribhub/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for unauthenticated routes
	publicLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", publicLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
		}

		// Live notification stream (public route with internal token validation)
		sseHandler := handlers.NewSSEHandler(services.GetNotificationHub())
		api.GET("/notifications/stream", sseHandler.StreamNotifications)

		// Public read routes (rate limited)
		contributionHandler := handlers.NewContributionHandler(models.GetDB())
		trendingHandler := handlers.NewTrendingHandler(svc.trendingService)
		public := api.Group("", publicLimiter.Middleware())
		{
			public.GET("/trending", trendingHandler.Trending)
			public.GET("/shared/:token", contributionHandler.GetByShareToken)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Contributions
			protected.GET("/contributions", contributionHandler.List)
			protected.GET("/contributions/mine", contributionHandler.ListOwn)
			protected.GET("/contributions/:id", contributionHandler.Get)
			protected.POST("/contributions", contributionHandler.Create)
			protected.PUT("/contributions/:id", contributionHandler.Update)
			protected.DELETE("/contributions/:id", contributionHandler.Delete)
			protected.POST("/contributions/:id/like", contributionHandler.Like)
			protected.DELETE("/contributions/:id/like", contributionHandler.Unlike)

			// Collaboration membership
			participantHandler := handlers.NewParticipantHandler(models.GetDB(), svc.notificationService)
			protected.POST("/contributions/:id/join", participantHandler.RequestJoin)
			protected.POST("/contributions/:id/leave", participantHandler.Leave)
			protected.GET("/contributions/:id/participants", participantHandler.ListForContribution)
			protected.GET("/participants/mine", participantHandler.ListMine)
			protected.POST("/participants/:id/decide", participantHandler.Decide)
			protected.DELETE("/participants/:id", participantHandler.Remove)

			// Edit requests
			editRequestHandler := handlers.NewEditRequestHandler(models.GetDB(), svc.notificationService)
			protected.POST("/contributions/:id/edit-requests", editRequestHandler.Submit)
			protected.GET("/contributions/:id/edit-requests", editRequestHandler.ListForContribution)
			protected.GET("/edit-requests/mine", editRequestHandler.ListMine)
			protected.GET("/edit-requests/:id", editRequestHandler.Get)
			protected.POST("/edit-requests/:id/approve", editRequestHandler.Approve)
			protected.POST("/edit-requests/:id/reject", editRequestHandler.Reject)

			// Comments
			commentHandler := handlers.NewCommentHandler(models.GetDB())
			protected.GET("/contributions/:id/comments", commentHandler.List)
			protected.POST("/contributions/:id/comments", commentHandler.Create)
			protected.DELETE("/comments/:id", commentHandler.Delete)

			// Notifications
			notificationHandler := handlers.NewNotificationHandler(svc.notificationService)
			protected.GET("/notifications", notificationHandler.List)
			protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			protected.POST("/notifications/:id/read", notificationHandler.MarkRead)
			protected.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			activityLogHandler := handlers.NewActivityLogHandler(models.GetDB())
			admin.GET("/activity-logs", activityLogHandler.List)
			admin.GET("/activity-logs/modules", activityLogHandler.GetModules)
		}
	}
}
