package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore keeps intermediaries and browsers from caching responses. Used on
// routes whose payload changes with every transition, e.g. executions.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
