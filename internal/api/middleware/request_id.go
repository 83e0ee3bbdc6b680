package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID tags every request with an ID, reusing a caller supplied
// X-Request-ID when it is a valid UUID. The ID is echoed in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the ID set by RequestID, or "".
//
// Go Learning Note — Type Assertion:
// c.Get() returns (any, bool). The two-value form `s, _ := v.(string)` yields
// the zero value instead of panicking when v is nil or not a string.
func GetRequestID(c *gin.Context) string {
	v, _ := c.Get(RequestIDKey)
	id, _ := v.(string)
	return id
}
