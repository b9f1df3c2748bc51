package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contribhub/backend/internal/middleware"
	"github.com/contribhub/backend/internal/services"
	"github.com/contribhub/backend/pkg/response"
)

type ParticipantHandler struct {
	participantService *services.ParticipantService
}

func NewParticipantHandler(db *gorm.DB, notifier *services.NotificationService) *ParticipantHandler {
	return &ParticipantHandler{
		participantService: services.NewParticipantService(db, notifier),
	}
}

type joinRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// RequestJoin asks to join a contribution as a collaborator
// POST /api/contributions/:id/join
func (h *ParticipantHandler) RequestJoin(c *gin.Context) {
	contributionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, err.Error())
		return
	}

	participant, err := h.participantService.RequestJoin(contributionID, middleware.GetUserID(c), req.Reason)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Created(c, participant)
}

type decideRequest struct {
	Outcome  string `json:"outcome" binding:"required,oneof=accepted rejected"`
	Response string `json:"response" binding:"max=1000"`
}

// Decide accepts or rejects a pending join request
// POST /api/participants/:id/decide
func (h *ParticipantHandler) Decide(c *gin.Context) {
	participantID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	participant, err := h.participantService.Decide(participantID, middleware.GetUserID(c), req.Outcome, req.Response)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, participant)
}

type leaveRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// Leave ends the caller's membership
// POST /api/contributions/:id/leave
func (h *ParticipantHandler) Leave(c *gin.Context) {
	contributionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, err.Error())
		return
	}

	participant, err := h.participantService.Leave(contributionID, middleware.GetUserID(c), req.Reason)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, participant)
}

// Remove forces a member out (owner only)
// DELETE /api/participants/:id
func (h *ParticipantHandler) Remove(c *gin.Context) {
	participantID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, err.Error())
		return
	}

	participant, err := h.participantService.Remove(participantID, middleware.GetUserID(c), req.Reason)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, participant)
}

// ListForContribution lists a contribution's participants
// GET /api/contributions/:id/participants
func (h *ParticipantHandler) ListForContribution(c *gin.Context) {
	contributionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.ParticipantListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.participantService.ListForContribution(contributionID, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, resp)
}

// ListMine lists the caller's memberships
// GET /api/participants/mine
func (h *ParticipantHandler) ListMine(c *gin.Context) {
	var req services.ParticipantListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.participantService.ListForUser(middleware.GetUserID(c), &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, resp)
}
