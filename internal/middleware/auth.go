package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/visiongate/visiongate/internal/auth"
	"github.com/visiongate/visiongate/internal/metrics"
	"github.com/visiongate/visiongate/internal/model"
	"github.com/visiongate/visiongate/internal/repository"
)

// APIKeyHeader is the header carrying the bearer credential.
const APIKeyHeader = "x-api-key"

// CredentialStore looks up users by API key.
// This is a pure lookup against the external store - no caching, no expiry,
// no revocation list beyond what the store itself enforces.
type CredentialStore interface {
	GetUserByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
}

// AuthConfig holds configuration for the auth guard.
type AuthConfig struct {
	Logger  *slog.Logger
	Store   CredentialStore
	Metrics metrics.Recorder
}

// Auth returns a middleware that authorizes requests by API key.
// It extracts the key from the x-api-key header, resolves the owning user
// in the credential store, and injects the user into the request context.
// Unknown or missing keys fail with 403.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractAPIKey(r)
			if key == "" {
				cfg.Logger.Warn("authorization failed",
					slog.String("reason", "missing_key"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthFailure()
				writeAuthError(w)
				return
			}

			if !auth.ValidateKeyFormat(key) {
				cfg.Logger.Warn("authorization failed",
					slog.String("reason", "invalid_format"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthFailure()
				writeAuthError(w)
				return
			}

			user, err := cfg.Store.GetUserByAPIKey(r.Context(), key)
			if err != nil {
				reason := "invalid_key"
				if !errors.Is(err, repository.ErrUserNotFound) {
					reason = "store_error"
					cfg.Logger.Error("credential store error during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				cfg.Logger.Warn("authorization failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthFailure()
				writeAuthError(w)
				return
			}

			cfg.Logger.Info("authorization successful",
				slog.String("user_id", user.ID),
				slog.String("ip", r.RemoteAddr),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractAPIKey extracts the API key from the request.
// Supports both "x-api-key: <key>" and "Authorization: Bearer <key>" headers.
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// writeAuthError writes a 403 Forbidden response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"detail":"Invalid API Key"}`))
}
