package services

import (
	"fmt"
	"time"

	"github.com/dferrin/lockbox/internal/models"
)

// AuthFailedError reports an invalid-credential login. AttemptsLeft is the
// number of failures remaining before lockout, or -1 when the deployment is
// configured not to disclose it.
type AuthFailedError struct {
	AttemptsLeft int
}

func (e *AuthFailedError) Error() string {
	return "invalid credentials"
}

func (e *AuthFailedError) Unwrap() error {
	return models.ErrUnauthorized
}

// LockedError reports a login rejected because the account is locked out.
// Until is when the lock expires; handlers decide how much of it to expose.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.UTC().Format(time.RFC3339))
}

func (e *LockedError) Unwrap() error {
	return models.ErrAccountLocked
}
