package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"codevault/internal/vcs"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, vcs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, vcs.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes {"error": ...}. Internal failures are reported
// without their details.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	abortWithError(c, fmt.Errorf("%w: %v", vcs.ErrInvalidInput, err))
}

// int64Param parses a positive integer path parameter.
func int64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		abortWithError(c, fmt.Errorf("%w: invalid %s %q", vcs.ErrInvalidInput, name, c.Param(name)))
		return 0, false
	}
	return v, true
}

func int64Query(c *gin.Context, name string, required bool) (int64, bool) {
	raw := c.Query(name)
	if raw == "" && !required {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 || (required && v == 0) {
		abortWithError(c, fmt.Errorf("%w: invalid %s %q", vcs.ErrInvalidInput, name, raw))
		return 0, false
	}
	return v, true
}
