package middleware

import "github.com/gin-gonic/gin"

// NoStore keeps responses out of shared and browser caches. Applied to
// routes that return session tokens or reset codes.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
