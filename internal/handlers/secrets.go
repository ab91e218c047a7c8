package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dferrin/lockbox/internal/auth"
	"github.com/dferrin/lockbox/internal/cryptox"
	"github.com/dferrin/lockbox/internal/models"
	pkghttp "github.com/dferrin/lockbox/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// VaultProvider is the slice of the vault service the handler consumes
type VaultProvider interface {
	AddSecret(ctx context.Context, ownerID, name, plaintext string) (string, error)
	ListSecrets(ctx context.Context, ownerID string) ([]models.SecretSummary, error)
	RevealSecret(ctx context.Context, ownerID, secretID string) (string, error)
	UpdateSecret(ctx context.Context, ownerID, secretID string, newName, newPlaintext *string) error
	DeleteSecret(ctx context.Context, ownerID, secretID string) error
}

// SecretsHandler serves the /api/password endpoints
type SecretsHandler struct {
	vault  VaultProvider
	logger *slog.Logger
}

// NewSecretsHandler creates a new SecretsHandler
func NewSecretsHandler(vault VaultProvider, logger *slog.Logger) *SecretsHandler {
	return &SecretsHandler{
		vault:  vault,
		logger: logger,
	}
}

type addSecretRequest struct {
	AccountName     string `json:"account_name" validate:"required,min=1,max=255"`
	AccountPassword string `json:"account_password" validate:"required,min=1"`
}

type editSecretRequest struct {
	AccountName     *string `json:"account_name" validate:"omitempty,min=1,max=255"`
	AccountPassword *string `json:"account_password" validate:"omitempty,min=1"`
}

// Add handles POST /api/password/add
func (h *SecretsHandler) Add(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Missing or invalid session")
		return
	}

	var req addSecretRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	secretID, err := h.vault.AddSecret(r.Context(), user.ID, req.AccountName, req.AccountPassword)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Account name and password are required")
			return
		}
		h.logger.Error("failed to add secret", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Failed to store password")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "id": secretID})
}

type listSecretsResponse struct {
	Success  bool                   `json:"success"`
	Accounts []models.SecretSummary `json:"accounts"`
}

// List handles GET /api/password/list
func (h *SecretsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Missing or invalid session")
		return
	}

	summaries, err := h.vault.ListSecrets(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list secrets", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Failed to list passwords")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, listSecretsResponse{Success: true, Accounts: summaries})
}

// Show handles GET /api/password/show/{id}
func (h *SecretsHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Missing or invalid session")
		return
	}

	secretID, ok := h.secretIDParam(w, r)
	if !ok {
		return
	}

	plaintext, err := h.vault.RevealSecret(r.Context(), user.ID, secretID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Password not found")
		case errors.Is(err, cryptox.ErrDecryption):
			// Already logged with the record id by the vault
			pkghttp.WriteInternalError(w, "Failed to retrieve password")
		default:
			h.logger.Error("failed to reveal secret", slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Failed to retrieve password")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "password": plaintext})
}

// Edit handles PUT /api/password/edit/{id}
func (h *SecretsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Missing or invalid session")
		return
	}

	secretID, ok := h.secretIDParam(w, r)
	if !ok {
		return
	}

	var req editSecretRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.vault.UpdateSecret(r.Context(), user.ID, secretID, req.AccountName, req.AccountPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Provide at least one field to update")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Password not found")
		default:
			h.logger.Error("failed to update secret", slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Failed to update password")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Delete handles DELETE /api/password/delete/{id}
func (h *SecretsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Missing or invalid session")
		return
	}

	secretID, ok := h.secretIDParam(w, r)
	if !ok {
		return
	}

	if err := h.vault.DeleteSecret(r.Context(), user.ID, secretID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Password not found")
			return
		}
		h.logger.Error("failed to delete secret", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Failed to delete password")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// secretIDParam extracts and validates the {id} route parameter. Writes a 400
// and returns ok=false when the id is not a UUID.
func (h *SecretsHandler) secretIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid password id")
		return "", false
	}
	return id, true
}
