package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/contribhub/backend/internal/models"
	"github.com/contribhub/backend/internal/services"
)

// HealthHandler provides enhanced health check endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Queue mode
	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	// Live notification subscribers
	sseClients := services.GetNotificationHub().ClientCount()

	// Undelivered notification backlog
	var pendingDeliveries int64
	models.GetDB().Model(&models.Notification{}).
		Where("delivered = ?", false).
		Count(&pendingDeliveries)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "contribhub",
		"components": gin.H{
			"database":           dbStatus,
			"queue_mode":         queueMode,
			"sse_clients":        sseClients,
			"pending_deliveries": pendingDeliveries,
		},
	})
}
