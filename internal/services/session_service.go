package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/dferrin/lockbox/internal/models"
	pkgauth "github.com/dferrin/lockbox/pkg/auth"
)

// SessionRepository defines the interface for session persistence
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// UserRepository defines the interface for identity persistence
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionService issues, resolves, and revokes login sessions
type SessionService struct {
	sessions SessionRepository
	users    UserRepository
	ttl      time.Duration
	logger   *slog.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(sessions SessionRepository, users UserRepository, ttl time.Duration, logger *slog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		logger:   logger,
	}
}

// Create issues a fresh session for the user: a random opaque token, an
// independently random CSRF secret, and an expiry of now + TTL.
func (s *SessionService) Create(ctx context.Context, userID string) (*models.Session, error) {
	token, err := pkgauth.GenerateToken()
	if err != nil {
		return nil, err
	}
	csrfSecret, err := pkgauth.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.Session{
		Token:      token,
		UserID:     userID,
		CSRFSecret: csrfSecret,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error("failed to persist session", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return session, nil
}

// Resolve looks up a session token and returns the owning user. A missing
// row, an expired row, or a vanished user all resolve to ErrUnauthorized;
// expired rows are opportunistically deleted on the way.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.User, *models.Session, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to look up session", slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	if session.Expired(time.Now()) {
		// Lazy cleanup; correctness does not depend on it succeeding.
		if err := s.sessions.Delete(ctx, session.Token); err != nil {
			s.logger.Warn("failed to delete expired session", slog.Any("error", err))
		}
		return nil, nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load session user", slog.String("user_id", session.UserID), slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	return user, session, nil
}

// ValidateCSRF compares a provided token against the session's CSRF secret
// in constant time.
func (s *SessionService) ValidateCSRF(session *models.Session, provided string) bool {
	if session == nil || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(session.CSRFSecret), []byte(provided)) == 1
}

// Revoke deletes the session row. Revoking an unknown token is not an error.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		s.logger.Error("failed to revoke session", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}
