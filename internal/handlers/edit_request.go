package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contribhub/backend/internal/middleware"
	"github.com/contribhub/backend/internal/services"
	"github.com/contribhub/backend/pkg/response"
)

type EditRequestHandler struct {
	editRequestService *services.EditRequestService
}

func NewEditRequestHandler(db *gorm.DB, notifier *services.NotificationService) *EditRequestHandler {
	participants := services.NewParticipantService(db, notifier)
	return &EditRequestHandler{
		editRequestService: services.NewEditRequestService(db, notifier, participants),
	}
}

type submitEditRequest struct {
	FieldKey string `json:"field_key" binding:"required,max=100"`
	NewValue string `json:"new_value" binding:"required"`
	Note     string `json:"note" binding:"max=1000"`
}

// Submit proposes a single-field content change
// POST /api/contributions/:id/edit-requests
func (h *EditRequestHandler) Submit(c *gin.Context) {
	contributionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req submitEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	request, err := h.editRequestService.Submit(contributionID, middleware.GetUserID(c), req.FieldKey, req.NewValue, req.Note)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Created(c, request)
}

// Approve applies a pending edit request
// POST /api/edit-requests/:id/approve
func (h *EditRequestHandler) Approve(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	request, err := h.editRequestService.Approve(id, middleware.GetUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, request)
}

type rejectEditRequest struct {
	Note string `json:"note" binding:"max=1000"`
}

// Reject declines a pending edit request
// POST /api/edit-requests/:id/reject
func (h *EditRequestHandler) Reject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req rejectEditRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, err.Error())
		return
	}

	request, err := h.editRequestService.Reject(id, middleware.GetUserID(c), req.Note)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, request)
}

// Get returns one edit request
// GET /api/edit-requests/:id
func (h *EditRequestHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	request, err := h.editRequestService.GetByID(id)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, request)
}

// ListForContribution lists a contribution's edit requests
// GET /api/contributions/:id/edit-requests
func (h *EditRequestHandler) ListForContribution(c *gin.Context) {
	contributionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.EditRequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.editRequestService.ListForContribution(contributionID, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, resp)
}

// ListMine lists the caller's submitted edit requests
// GET /api/edit-requests/mine
func (h *EditRequestHandler) ListMine(c *gin.Context) {
	var req services.EditRequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.editRequestService.ListForUser(middleware.GetUserID(c), &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, resp)
}
