package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"sharedstreets/internal/services"
	"sharedstreets/pkg/ssid"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeNotFound = "NOT_FOUND"
	codeInternal = "INTERNAL"
)

// respondError maps service and identifier errors onto HTTP statuses and
// records the error on the context for the request logger.
//
// Go Learning Note — errors.Is vs errors.As:
// errors.Is walks the wrap chain looking for a matching value (a sentinel like
// ErrFeatureNotFound). errors.As walks the same chain looking for a matching
// type and, when it finds one, assigns it so its fields can be read.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var ssidErr *ssid.Error
	switch {
	case errors.Is(err, services.ErrFeatureNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Code: codeNotFound, Message: err.Error()})
	case errors.As(err, &ssidErr):
		status := http.StatusBadRequest
		if ssidErr.Code == ssid.CodeEncodingFailure {
			status = http.StatusInternalServerError
		}
		c.JSON(status, ErrorResponse{Code: string(ssidErr.Code), Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: codeInternal, Message: err.Error()})
	}
}

// badRequest reports a body or path that could not be decoded.
func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Code: string(ssid.CodeInvalidInput), Message: err.Error()})
}
