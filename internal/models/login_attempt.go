package models

import "time"

// LoginAttempt is the per-email failed-login counter. One row per email,
// upserted on each failure and deleted entirely on a successful login.
//
// Attempts counts only failures inside a rolling window starting at
// FirstAttemptAt; once the threshold is reached LockedUntil is set and
// further logins are rejected until it passes.
type LoginAttempt struct {
	Email          string
	Attempts       int
	FirstAttemptAt time.Time
	LastAttemptAt  time.Time
	LockedUntil    *time.Time
}
