// Package middleware provides HTTP middleware for the Gin router.
//
// Go Learning Note — Middleware Pattern (Gin):
// In Gin, middleware is any function with the signature `gin.HandlerFunc`, which
// is `func(*gin.Context)`. Middleware functions form a chain: each one runs,
// optionally calls c.Next() to pass control to the next handler, and can call
// c.Abort() to stop the chain. Every constructor here returns a closure so the
// outer call can capture configuration (a default format, a logger, limits).
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"sharedstreets/pkg/ssid"
)

// Context keys shared between middleware and handlers.
const (
	FormatKey    = "id_format"
	RequestIDKey = "request_id"

	// FormatHeader and the "format" query parameter select the identifier
	// format per request. The query parameter wins when both are set.
	FormatHeader    = "X-ID-Format"
	RequestIDHeader = "X-Request-ID"
)

// IDFormat resolves the identifier format of a request. Unknown formats are
// rejected before any handler runs.
func IDFormat(defaultFormat ssid.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("format")
		if raw == "" {
			raw = c.GetHeader(FormatHeader)
		}

		format := defaultFormat
		if raw != "" {
			f, err := ssid.ParseFormat(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"code":    string(ssid.CodeInvalidInput),
					"message": err.Error(),
				})
				return
			}
			format = f
		}

		c.Set(FormatKey, format)
		c.Next()
	}
}

// GetFormat returns the format stored by IDFormat, or "" when the middleware
// did not run (the service then applies its own default).
func GetFormat(c *gin.Context) ssid.Format {
	v, ok := c.Get(FormatKey)
	if !ok {
		return ""
	}
	f, _ := v.(ssid.Format)
	return f
}
