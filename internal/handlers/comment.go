package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contribhub/backend/internal/middleware"
	"github.com/contribhub/backend/internal/services"
	"github.com/contribhub/backend/pkg/response"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{commentService: services.NewCommentService(db)}
}

// Create adds a comment or reply
// POST /api/contributions/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	contributionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.Create(contributionID, middleware.GetUserID(c), &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Created(c, comment)
}

// Delete removes a comment
// DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.Delete(id, middleware.GetUserID(c)); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// List returns a contribution's comment threads
// GET /api/contributions/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	contributionID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req services.CommentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.commentService.List(contributionID, &req)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.Success(c, resp)
}
