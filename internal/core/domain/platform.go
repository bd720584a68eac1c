package domain

import "strings"

// Platform identifies the coarse client class a request originates from.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformMobile  Platform = "mobile"
	PlatformAPI     Platform = "api"
	PlatformUnknown Platform = "unknown"
)

// IsValid reports whether the platform is one of the known tags.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformWeb, PlatformMobile, PlatformAPI:
		return true
	}
	return false
}

// DeviceInfo carries coarse device metadata derived from request headers.
type DeviceInfo struct {
	Platform  Platform
	DeviceID  string
	UserAgent string
}

var (
	mobileMarkers = []string{
		"android", "iphone", "ipad", "ipod", "mobile", "okhttp", "dart/",
		"reactnative", "expo",
	}
	apiMarkers = []string{
		"curl", "wget", "postman", "insomnia", "httpie", "python-requests",
		"go-http-client", "axios", "node-fetch", "java/",
	}
	browserMarkers = []string{
		"mozilla", "chrome", "safari", "firefox", "edg/", "opera",
	}
)

// ClassifyPlatform derives a platform tag from an explicit platform header and
// the user agent string. The header wins when it names a known platform.
// Pure function, no state.
func ClassifyPlatform(platformHeader, userAgent string) Platform {
	if tag := Platform(strings.ToLower(strings.TrimSpace(platformHeader))); tag.IsValid() {
		return tag
	}

	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return PlatformUnknown
	}

	for _, marker := range apiMarkers {
		if strings.Contains(ua, marker) {
			return PlatformAPI
		}
	}
	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			return PlatformMobile
		}
	}
	for _, marker := range browserMarkers {
		if strings.Contains(ua, marker) {
			return PlatformWeb
		}
	}

	return PlatformUnknown
}

// ClassifyDevice produces the full device metadata for a request.
func ClassifyDevice(platformHeader, userAgent, deviceID string) DeviceInfo {
	return DeviceInfo{
		Platform:  ClassifyPlatform(platformHeader, userAgent),
		DeviceID:  strings.TrimSpace(deviceID),
		UserAgent: strings.TrimSpace(userAgent),
	}
}
