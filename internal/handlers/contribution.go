package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contribhub/backend/internal/middleware"
	"github.com/contribhub/backend/internal/services"
	"github.com/contribhub/backend/pkg/response"
)

type ContributionHandler struct {
	contributionService *services.ContributionService
}

func NewContributionHandler(db *gorm.DB) *ContributionHandler {
	return &ContributionHandler{
		contributionService: services.NewContributionService(db),
	}
}

// Create creates a new contribution
// POST /api/contributions
func (h *ContributionHandler) Create(c *gin.Context) {
	var req services.CreateContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	contribution, err := h.contributionService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Created(c, contribution)
}

// Update modifies an owned contribution
// PUT /api/contributions/:id
func (h *ContributionHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	contribution, err := h.contributionService.Update(id, middleware.GetUserID(c), &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, contribution)
}

// Delete removes an owned contribution
// DELETE /api/contributions/:id
func (h *ContributionHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.contributionService.Delete(id, middleware.GetUserID(c)); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// Get returns one contribution and counts the view
// GET /api/contributions/:id
func (h *ContributionHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	contribution, err := h.contributionService.GetByID(id, middleware.GetUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}

	h.contributionService.RecordView(contribution.ID)
	response.Success(c, contribution)
}

// GetByShareToken resolves a share link
// GET /api/shared/:token
func (h *ContributionHandler) GetByShareToken(c *gin.Context) {
	contribution, err := h.contributionService.GetByShareToken(c.Param("token"))
	if err != nil {
		serviceError(c, err)
		return
	}

	h.contributionService.RecordView(contribution.ID)
	response.Success(c, contribution)
}

// List returns public contributions
// GET /api/contributions
func (h *ContributionHandler) List(c *gin.Context) {
	var req services.ContributionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.contributionService.List(&req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, resp)
}

// ListOwn returns the caller's contributions
// GET /api/contributions/mine
func (h *ContributionHandler) ListOwn(c *gin.Context) {
	var req services.ContributionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.contributionService.ListOwn(middleware.GetUserID(c), &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, resp)
}

// Like records a like
// POST /api/contributions/:id/like
func (h *ContributionHandler) Like(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.contributionService.Like(id, middleware.GetUserID(c)); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "liked"})
}

// Unlike removes a like
// DELETE /api/contributions/:id/like
func (h *ContributionHandler) Unlike(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.contributionService.Unlike(id, middleware.GetUserID(c)); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "unliked"})
}
