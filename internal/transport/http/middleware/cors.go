package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// corsHeaders is the preflight allow-list. Beyond the usual suspects it
// includes the custom headers the other middleware in this package reads.
var corsHeaders = strings.Join([]string{
	"Origin",
	"Content-Type",
	"Accept",
	"Authorization",
	RequestIDHeader,
	TraceIDHeader,
	PlatformHeader,
	DeviceIDHeader,
}, ",")

const corsMethods = "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS"

// CORS answers preflight requests and stamps Access-Control headers on
// responses. An allow-list containing "*" opens the API to any origin;
// otherwise only listed origins are echoed back.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if _, ok := allowed[origin]; ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Expose-Headers", strings.Join([]string{RequestIDHeader, TraceIDHeader}, ","))

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", corsMethods)
			c.Header("Access-Control-Allow-Headers", corsHeaders)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
