package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"expenses/internal/auth"
	"expenses/internal/core"
	"expenses/internal/log"
)

// idsRequest is the body of every bulk-delete endpoint.
type idsRequest struct {
	IDs []string `json:"ids"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

// respondError maps the error taxonomy to a status code. Anything outside it
// is logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, core.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, core.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "Request timed out"
	}

	ctx := c.Request.Context()
	if status >= http.StatusInternalServerError {
		log.FromContext(ctx).ErrorContext(ctx, "Request failed",
			log.FieldPath, c.FullPath(),
			log.FieldErrorType, log.ErrorTypeInternal,
			log.FieldError, err.Error())
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// owner returns the authenticated owner or writes a 401.
func owner(c *gin.Context) (string, bool) {
	id, err := auth.OwnerFrom(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return id, true
}

// bindJSON decodes the body into dst, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, core.Invalid("invalid request body: %v", err))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Invalid("%s must be an integer", key)
	}
	return n, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, core.Invalid("%s must be true or false", key)
	}
	return b, nil
}
