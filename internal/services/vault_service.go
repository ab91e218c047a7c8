package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dferrin/lockbox/internal/cache"
	"github.com/dferrin/lockbox/internal/cryptox"
	"github.com/dferrin/lockbox/internal/models"
)

// SecretRepository defines the interface for secret persistence
type SecretRepository interface {
	Create(ctx context.Context, secret *models.Secret) (*models.Secret, error)
	GetByID(ctx context.Context, id string) (*models.Secret, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.Secret, error)
	Update(ctx context.Context, secret *models.Secret) (*models.Secret, error)
	DeleteByOwner(ctx context.Context, id, userID string) error
}

// VaultService provides owner-scoped CRUD over encrypted secrets. Every
// lookup by id enforces ownership and reports absent-or-foreign rows as the
// same not-found outcome.
type VaultService struct {
	repo   SecretRepository
	engine *cryptox.Engine
	cache  cache.Store
	logger *slog.Logger
}

// NewVaultService creates a new VaultService
func NewVaultService(repo SecretRepository, engine *cryptox.Engine, store cache.Store, logger *slog.Logger) *VaultService {
	return &VaultService{
		repo:   repo,
		engine: engine,
		cache:  store,
		logger: logger,
	}
}

func listCacheKey(ownerID string) string {
	return fmt.Sprintf("pw:%s", ownerID)
}

// AddSecret encrypts and stores a named credential for the owner.
func (s *VaultService) AddSecret(ctx context.Context, ownerID, name, plaintext string) (string, error) {
	if name == "" || plaintext == "" {
		return "", models.ErrBadRequest
	}

	ciphertext, err := s.engine.EncryptLayered(plaintext)
	if err != nil {
		s.logger.Error("failed to encrypt secret", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	secret, err := s.repo.Create(ctx, &models.Secret{
		UserID:     ownerID,
		Name:       name,
		Ciphertext: ciphertext,
	})
	if err != nil {
		s.logger.Error("failed to store secret", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.cache.Delete(listCacheKey(ownerID))

	s.logger.Info("secret added", slog.String("user_id", ownerID), slog.String("secret_id", secret.ID))
	return secret.ID, nil
}

// ListSecrets returns metadata (id and name only) for all secrets owned by
// ownerID. Results are cached per owner; every mutation for that owner
// invalidates the entry.
func (s *VaultService) ListSecrets(ctx context.Context, ownerID string) ([]models.SecretSummary, error) {
	key := listCacheKey(ownerID)

	if cached, ok := s.cache.Get(key); ok {
		if summaries, ok := cached.([]models.SecretSummary); ok {
			return summaries, nil
		}
	}

	secrets, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list secrets", slog.String("user_id", ownerID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	summaries := make([]models.SecretSummary, 0, len(secrets))
	for _, secret := range secrets {
		summaries = append(summaries, models.SecretSummary{ID: secret.ID, Name: secret.Name})
	}

	s.cache.Set(key, summaries)

	return summaries, nil
}

// RevealSecret decrypts and returns the plaintext of a single secret. An
// absent id and a foreign id are the same not-found outcome. Decryption
// failure means stored data is corrupt; it is logged with the record id and
// surfaced as a distinct error, never as partial plaintext.
func (s *VaultService) RevealSecret(ctx context.Context, ownerID, secretID string) (string, error) {
	secret, err := s.getOwned(ctx, ownerID, secretID)
	if err != nil {
		return "", err
	}

	plaintext, err := s.engine.DecryptLayered(secret.Ciphertext)
	if err != nil {
		if errors.Is(err, cryptox.ErrDecryption) {
			s.logger.Error("secret ciphertext failed to decrypt",
				slog.String("secret_id", secret.ID),
				slog.String("user_id", ownerID))
			return "", cryptox.ErrDecryption
		}
		s.logger.Error("failed to decrypt secret", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	return plaintext, nil
}

// UpdateSecret renames and/or re-encrypts an owned secret. Either field may
// be nil for a partial update, but not both.
func (s *VaultService) UpdateSecret(ctx context.Context, ownerID, secretID string, newName, newPlaintext *string) error {
	if newName == nil && newPlaintext == nil {
		return models.ErrBadRequest
	}
	if newName != nil && *newName == "" {
		return models.ErrBadRequest
	}
	if newPlaintext != nil && *newPlaintext == "" {
		return models.ErrBadRequest
	}

	secret, err := s.getOwned(ctx, ownerID, secretID)
	if err != nil {
		return err
	}

	if newName != nil {
		secret.Name = *newName
	}
	if newPlaintext != nil {
		ciphertext, err := s.engine.EncryptLayered(*newPlaintext)
		if err != nil {
			s.logger.Error("failed to re-encrypt secret", slog.Any("error", err))
			return models.ErrInternalServer
		}
		secret.Ciphertext = ciphertext
	}

	if _, err := s.repo.Update(ctx, secret); err != nil {
		s.logger.Error("failed to update secret", slog.String("secret_id", secretID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.cache.Delete(listCacheKey(ownerID))

	s.logger.Info("secret updated", slog.String("user_id", ownerID), slog.String("secret_id", secretID))
	return nil
}

// DeleteSecret removes an owned secret. Deleting a nonexistent or foreign
// id reports not found.
func (s *VaultService) DeleteSecret(ctx context.Context, ownerID, secretID string) error {
	if err := s.repo.DeleteByOwner(ctx, secretID, ownerID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete secret", slog.String("secret_id", secretID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.cache.Delete(listCacheKey(ownerID))

	s.logger.Info("secret deleted", slog.String("user_id", ownerID), slog.String("secret_id", secretID))
	return nil
}

// getOwned fetches a secret and enforces ownership. Ownership mismatch is
// reported identically to a missing row to avoid existence leakage.
func (s *VaultService) getOwned(ctx context.Context, ownerID, secretID string) (*models.Secret, error) {
	secret, err := s.repo.GetByID(ctx, secretID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get secret", slog.String("secret_id", secretID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if secret.UserID != ownerID {
		return nil, models.ErrNotFound
	}

	return secret, nil
}
