package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/visiongate/visiongate/internal/auth"
	"github.com/visiongate/visiongate/internal/model"
	"github.com/visiongate/visiongate/internal/repository"
)

// UserStore is the credential-store surface the account endpoints need.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	RotateAPIKey(ctx context.Context, username, newAPIKey string) error
	DeleteUser(ctx context.Context, username string) error
}

// AccountHandler handles account lifecycle endpoints.
type AccountHandler struct {
	logger *slog.Logger
	store  UserStore
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(logger *slog.Logger, store UserStore) *AccountHandler {
	return &AccountHandler{
		logger: logger,
		store:  store,
	}
}

// Register handles POST /register.
// Creates an account and returns its freshly issued API key.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := decodeAccountRequest(w, r)
	if !ok {
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: passwordHash,
		APIKey:       auth.GenerateAPIKey(),
		CreatedAt:    time.Now(),
	}

	if err := h.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			writeDetail(w, http.StatusConflict, "Username already taken")
			return
		}
		h.logger.Error("failed to create user", slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	h.logger.Info("account registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	writeJSON(w, http.StatusCreated, model.APIKeyResponse{APIKey: user.APIKey})
}

// RotateAPIKey handles POST /rotate_api_key.
// Verifies the caller's credentials and replaces their API key atomically.
func (h *AccountHandler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := decodeAccountRequest(w, r)
	if !ok {
		return
	}

	if !h.verifyCredentials(ctx, req.Username, req.Password) {
		writeCredentialError(w)
		return
	}

	newKey := auth.GenerateAPIKey()
	if err := h.store.RotateAPIKey(ctx, req.Username, newKey); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeCredentialError(w)
			return
		}
		h.logger.Error("failed to rotate API key", slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, "Failed to rotate API key")
		return
	}

	h.logger.Info("API key rotated", slog.String("username", req.Username))

	writeJSON(w, http.StatusOK, model.APIKeyResponse{APIKey: newKey})
}

// DeleteAccount handles POST /delete_account.
// Verifies the caller's credentials and removes the account row, which
// invalidates its API key immediately.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := decodeAccountRequest(w, r)
	if !ok {
		return
	}

	if !h.verifyCredentials(ctx, req.Username, req.Password) {
		writeCredentialError(w)
		return
	}

	if err := h.store.DeleteUser(ctx, req.Username); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeCredentialError(w)
			return
		}
		h.logger.Error("failed to delete account", slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	h.logger.Info("account deleted", slog.String("username", req.Username))

	writeDetail(w, http.StatusOK, "Account deleted")
}

// verifyCredentials checks a username/password pair against the store.
// All failure modes collapse to false so callers return one generic message.
func (h *AccountHandler) verifyCredentials(ctx context.Context, username, password string) bool {
	user, err := h.store.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			h.logger.Error("failed to look up user", slog.String("error", err.Error()))
		}
		return false
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		h.logger.Error("failed to verify password", slog.String("error", err.Error()))
		return false
	}
	return ok
}

func decodeAccountRequest(w http.ResponseWriter, r *http.Request) (model.AccountRequest, bool) {
	var req model.AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return req, false
	}
	if req.Username == "" || req.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Username and password are required")
		return req, false
	}
	return req, true
}

// writeCredentialError writes the generic 403 used for every credential
// failure so usernames cannot be enumerated.
func writeCredentialError(w http.ResponseWriter) {
	writeDetail(w, http.StatusForbidden, "Invalid username or password")
}
