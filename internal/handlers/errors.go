package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/otoservice/workshop-scheduler/internal/httperr"
)

// writeBusiness maps the booking error taxonomy to HTTP statuses.
// Anything that is not a business error is an unexpected failure.
func writeBusiness(c *gin.Context, err error) {
	var be httperr.BusinessError
	if !errors.As(err, &be) {
		httperr.Internal(c, "internal_error", "Unexpected error.")
		return
	}

	switch be.Code {
	case httperr.CodeInvalidInterval, httperr.CodeInvalidRequest:
		httperr.BadRequest(c, be.Code, be.Message)
	case httperr.CodeNotFound:
		httperr.NotFound(c, be.Code, be.Message)
	case httperr.CodeNoQualifiedMechanic, httperr.CodeNoAvailability:
		httperr.Unprocessable(c, be.Code, be.Message)
	case httperr.CodeConflict, httperr.CodeIllegalTransition:
		httperr.Conflict(c, be.Code, be.Message)
	default:
		httperr.BadRequest(c, be.Code, be.Message)
	}
}
