package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/contribhub/backend/internal/services"
	"github.com/contribhub/backend/pkg/response"
)

// serviceError renders a workflow error with the status its kind calls for.
func serviceError(c *gin.Context, err error) {
	switch services.KindOf(err) {
	case services.KindAuthorization:
		response.Forbidden(c, err.Error())
	case services.KindState, services.KindConflict:
		c.JSON(http.StatusConflict, response.Response{Code: 409, Message: err.Error()})
	case services.KindNotFound:
		response.NotFound(c, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

// idParam parses a numeric path parameter; the second return is false when
// the value is not a valid ID (the 400 has already been written).
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
