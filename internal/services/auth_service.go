package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dferrin/lockbox/internal/models"
	pkgauth "github.com/dferrin/lockbox/pkg/auth"
	pkglogger "github.com/dferrin/lockbox/pkg/logger"
)

// AuthService handles registration and login orchestration: the login guard
// runs first, then credential verification, then session issuance.
type AuthService struct {
	users            UserRepository
	sessions         *SessionService
	lockout          *LockoutService
	discloseAttempts bool
	logger           *slog.Logger
	auditLogger      *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserRepository,
	sessions *SessionService,
	lockout *LockoutService,
	discloseAttempts bool,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:            users,
		sessions:         sessions,
		lockout:          lockout,
		discloseAttempts: discloseAttempts,
		logger:           logger,
		auditLogger:      auditLogger,
	}
}

// LoginResult is the outcome of a successful register or login
type LoginResult struct {
	User    *models.User
	Session *models.Session
}

// Register creates a new identity and logs it in immediately. A duplicate
// email yields ErrConflict. Any stale failed-login counter for the email is
// cleared on the way.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if username == "" || email == "" || password == "" {
		return nil, models.ErrBadRequest
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, models.ErrBadRequest
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check email uniqueness", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Raced with a concurrent registration for the same email.
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.lockout.RecordSuccess(ctx, email); err != nil {
		s.logger.Warn("failed to reset login attempts on register", slog.Any("error", err))
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "register",
		UserID:    user.ID,
		Email:     email,
		Success:   true,
	})

	return &LoginResult{User: user, Session: session}, nil
}

// Login authenticates by email and password. The lockout check runs before
// credential verification, so a locked account rejects even a correct
// password. Invalid credentials are indistinguishable between unknown email
// and wrong password.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.ErrBadRequest
	}

	locked, lockedUntil, err := s.lockout.CheckLockout(ctx, email)
	if err != nil {
		return nil, err
	}
	if locked {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Email:         email,
			IPAddress:     ipAddress,
			FailureReason: "locked_out",
			Success:       false,
		})
		return nil, &LockedError{Until: *lockedUntil}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	credentialsValid := err == nil && pkgauth.ComparePassword(user.PasswordHash, password) == nil

	if !credentialsValid {
		attempts, _, recordErr := s.lockout.RecordFailure(ctx, email)
		if recordErr != nil {
			return nil, recordErr
		}

		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Email:         email,
			IPAddress:     ipAddress,
			FailureReason: "invalid_credentials",
			Success:       false,
		})

		attemptsLeft := -1
		if s.discloseAttempts {
			attemptsLeft = s.lockout.AttemptsLeft(attempts)
		}
		return nil, &AuthFailedError{AttemptsLeft: attemptsLeft}
	}

	if err := s.lockout.RecordSuccess(ctx, email); err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Email:     email,
		IPAddress: ipAddress,
		Success:   true,
	})

	return &LoginResult{User: user, Session: session}, nil
}

// Logout revokes the session token. Revoking twice is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}
