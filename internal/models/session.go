package models

import "time"

// Session is an opaque server-side login session. The token and CSRF secret
// are high-entropy random values; the token is the primary key in the store.
//
// A session whose ExpiresAt is in the past must be treated as absent by every
// reader, whether or not the row has been physically removed.
type Session struct {
	Token      string
	UserID     string
	CSRFSecret string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session must be treated as absent.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
