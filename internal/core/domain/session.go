package domain

import "time"

// DefaultSessionTTL is the sliding validity window of a session.
const DefaultSessionTTL = 24 * time.Hour

// Session is the single current login of the process.
type Session struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	LoginTime   time.Time `json:"loginTime"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// NewSession opens a session for u that expires ttl after now.
func NewSession(u *User, now time.Time, ttl time.Duration) *Session {
	return &Session{
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		LoginTime:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// ValidAt reports whether the session has not yet expired at now.
func (s *Session) ValidAt(now time.Time) bool {
	return s != nil && s.ExpiresAt.After(now)
}

// Clone returns a copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
