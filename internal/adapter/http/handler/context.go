package handler

import (
	"fmt"

	"relief-fund-gateway/internal/adapter/http/middleware"
	"relief-fund-gateway/pkg/apperror"
	"relief-fund-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// callerID extracts the authenticated account ID set by the JWT middleware.
// On failure it writes the error response and returns false.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses a UUID path parameter. On failure it writes a validation
// error response and returns false.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperror.Validation(fmt.Sprintf("invalid %s: must be a UUID", name)))
		return uuid.Nil, false
	}
	return id, true
}
