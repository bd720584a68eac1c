package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
)

const (
	// PlatformHeader lets clients name their platform explicitly.
	PlatformHeader = "X-Platform"
	// DeviceIDHeader carries an opaque client-chosen device identifier.
	DeviceIDHeader = "X-Device-ID"
)

// Platform classifies the calling device from request headers and stores
// the result for handlers to bind tokens and sessions to.
func Platform() gin.HandlerFunc {
	return func(c *gin.Context) {
		device := domain.ClassifyDevice(
			c.GetHeader(PlatformHeader),
			c.Request.UserAgent(),
			c.GetHeader(DeviceIDHeader),
		)
		c.Set(DeviceKey, device)
		c.Next()
	}
}

// GetDevice retrieves the classified device info, defaulting to an unknown
// platform when the middleware did not run.
func GetDevice(c *gin.Context) domain.DeviceInfo {
	if v, exists := c.Get(DeviceKey); exists {
		if device, ok := v.(domain.DeviceInfo); ok {
			return device
		}
	}
	return domain.DeviceInfo{Platform: domain.PlatformUnknown}
}
