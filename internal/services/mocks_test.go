package services_test

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dferrin/lockbox/internal/models"
	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// MockUserRepository implements services.UserRepository for testing
type MockUserRepository struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[user.Email]; exists {
		return nil, models.ErrConflict
	}
	stored := *user
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now()
	m.byID[stored.ID] = &stored
	m.byEmail[stored.Email] = &stored
	return &stored, nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return user, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byEmail[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return user, nil
}

func (m *MockUserRepository) DeleteByID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byID[id]; ok {
		delete(m.byEmail, user.Email)
		delete(m.byID, id)
	}
}

// MockSessionRepository implements services.SessionRepository for testing
type MockSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[string]*models.Session)}
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[session.Token]; exists {
		return models.ErrConflict
	}
	stored := *session
	m.sessions[session.Token] = &stored
	return nil
}

func (m *MockSessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[token]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *MockSessionRepository) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for token, session := range m.sessions {
		if !session.ExpiresAt.After(now) {
			delete(m.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockSessionRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MockSessionRepository) Expire(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[token]; ok {
		session.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

// MockLoginAttemptRepository implements services.LoginAttemptRepository for testing
type MockLoginAttemptRepository struct {
	mu       sync.Mutex
	counters map[string]*models.LoginAttempt
}

func NewMockLoginAttemptRepository() *MockLoginAttemptRepository {
	return &MockLoginAttemptRepository{counters: make(map[string]*models.LoginAttempt)}
}

func (m *MockLoginAttemptRepository) GetByEmail(ctx context.Context, email string) (*models.LoginAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt, ok := m.counters[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *attempt
	return &copied, nil
}

func (m *MockLoginAttemptRepository) Upsert(ctx context.Context, attempt *models.LoginAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *attempt
	m.counters[attempt.Email] = &stored
	return nil
}

func (m *MockLoginAttemptRepository) Delete(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counters, email)
	return nil
}

func (m *MockLoginAttemptRepository) Seed(attempt *models.LoginAttempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *attempt
	m.counters[attempt.Email] = &stored
}

func (m *MockLoginAttemptRepository) Exists(email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.counters[email]
	return ok
}

// MockSecretRepository implements services.SecretRepository for testing
type MockSecretRepository struct {
	mu      sync.Mutex
	secrets map[string]*models.Secret
}

func NewMockSecretRepository() *MockSecretRepository {
	return &MockSecretRepository{secrets: make(map[string]*models.Secret)}
}

func (m *MockSecretRepository) Create(ctx context.Context, secret *models.Secret) (*models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *secret
	stored.ID = uuid.New().String()
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.secrets[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (m *MockSecretRepository) GetByID(ctx context.Context, id string) (*models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	secret, ok := m.secrets[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *secret
	return &copied, nil
}

func (m *MockSecretRepository) ListByOwner(ctx context.Context, userID string) ([]*models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*models.Secret, 0)
	for _, secret := range m.secrets {
		if secret.UserID == userID {
			copied := *secret
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockSecretRepository) Update(ctx context.Context, secret *models.Secret) (*models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.secrets[secret.ID]; !ok {
		return nil, models.ErrNotFound
	}
	stored := *secret
	stored.UpdatedAt = time.Now()
	m.secrets[secret.ID] = &stored
	copied := stored
	return &copied, nil
}

func (m *MockSecretRepository) DeleteByOwner(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	secret, ok := m.secrets[id]
	if !ok || secret.UserID != userID {
		return models.ErrNotFound
	}
	delete(m.secrets, id)
	return nil
}

func (m *MockSecretRepository) Corrupt(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if secret, ok := m.secrets[id]; ok {
		secret.Ciphertext = "bm90IGEgdmFsaWQgcGF5bG9hZA=="
	}
}

// MockCache implements cache.Store and records invalidations
type MockCache struct {
	mu      sync.Mutex
	entries map[string]any
	Deletes []string
}

func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string]any)}
}

func (m *MockCache) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	return value, ok
}

func (m *MockCache) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

func (m *MockCache) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	m.Deletes = append(m.Deletes, key)
}
