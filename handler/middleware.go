package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS permits cross-origin playback. Range must be an allowed request
// header and Content-Range an exposed response header or seeking breaks
// on browsers.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS, HEAD")
		c.Header("Access-Control-Allow-Headers", "Range, Content-Type")
		c.Header("Access-Control-Expose-Headers", "Content-Range, Content-Length, Accept-Ranges")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
