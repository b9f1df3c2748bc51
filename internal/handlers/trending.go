package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/contribhub/backend/internal/services"
	"github.com/contribhub/backend/pkg/response"
)

type TrendingHandler struct {
	trendingService *services.TrendingService
}

func NewTrendingHandler(trendingService *services.TrendingService) *TrendingHandler {
	return &TrendingHandler{trendingService: trendingService}
}

// Trending returns the ranked public feed
// GET /api/trending
func (h *TrendingHandler) Trending(c *gin.Context) {
	var req services.TrendingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.trendingService.Trending(&req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, resp)
}
