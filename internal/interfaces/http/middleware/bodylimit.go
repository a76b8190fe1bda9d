package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/equiptrack/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects oversized request bodies. Declared lengths are checked
// up front; chunked uploads are capped by a MaxBytesReader so a lying
// client fails at read time instead.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse("REQUEST_TOO_LARGE", "Request body exceeds maximum allowed size"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
