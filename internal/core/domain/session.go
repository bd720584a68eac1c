package domain

import "time"

// Session represents a cookie-session entry used by the web platform path.
// Sessions are a separate concept from refresh tokens: they live under their
// own keys and their own per-user bounded list.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Platform  Platform  `json:"platform"`
	DeviceID  string    `json:"device_id,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsActive reports whether the session is still valid at the supplied moment.
func (s Session) IsActive(at time.Time) bool {
	return s.ExpiresAt.After(at)
}

// Touch updates last-seen metadata for the session when activity occurs.
func (s *Session) Touch(at time.Time, ip string) {
	s.LastSeen = at
	if ip != "" {
		s.IP = ip
	}
}
