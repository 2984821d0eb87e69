package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/validation"
)

// Authenticator checks an email/password pair and returns the matching user id.
// It must return a client-facing *apperror.AppError when the credentials are rejected.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (int64, error)
}

// Handlers exposes the token endpoints.
type Handlers struct {
	tokens        *TokenService
	authenticator Authenticator
	now           func() time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(tokens *TokenService, authenticator Authenticator) *Handlers {
	return &Handlers{tokens: tokens, authenticator: authenticator, now: time.Now}
}

// HandleToken godoc
// @Summary Create auth token
// @Description Exchanges an email and password for a bearer token.
// @Tags user
// @Accept json
// @Produce json
// @Param credentials body auth.TokenRequest true "User credentials"
// @Success 200 {object} auth.TokenResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid credentials or missing fields"
// @Router /api/user/token [post]
func (h *Handlers) HandleToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		if err := validation.Struct(req); err != nil {
			WriteError(w, r, err)
			return
		}

		userID, err := h.authenticator.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		pair, err := h.tokens.IssuePair(userID)
		if err != nil {
			WriteError(w, r, apperror.NewInternalError("failed to issue token", err))
			return
		}

		WriteJSON(w, http.StatusOK, TokenResponse{
			Token:        pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    h.secondsUntil(pair.AccessExpiresAt),
		})
	}
}

// HandleRefreshToken godoc
// @Summary Refresh auth token
// @Description Issues a new access token for a valid refresh token.
// @Tags user
// @Accept json
// @Produce json
// @Param refresh body auth.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} auth.TokenResponse
// @Failure 400 {object} apperror.ErrorResponse "Missing refresh token"
// @Failure 401 {object} apperror.ErrorResponse "Invalid or expired refresh token"
// @Router /api/user/token/refresh [post]
func (h *Handlers) HandleRefreshToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		if err := validation.Struct(req); err != nil {
			WriteError(w, r, err)
			return
		}

		claims, err := h.tokens.ValidateRefresh(req.RefreshToken)
		if err != nil {
			WriteError(w, r, apperror.NewAuthError("Invalid refresh token.", err))
			return
		}

		access, expiresAt, err := h.tokens.IssueAccess(claims.UserID)
		if err != nil {
			WriteError(w, r, apperror.NewInternalError("failed to issue token", err))
			return
		}

		// The refresh token is handed back unchanged; rotation is not implemented.
		WriteJSON(w, http.StatusOK, TokenResponse{
			Token:        access,
			RefreshToken: req.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    h.secondsUntil(expiresAt),
		})
	}
}

func (h *Handlers) secondsUntil(t time.Time) int64 {
	return int64(t.Sub(h.now()).Round(time.Second) / time.Second)
}

// WriteJSON serializes data to JSON and writes it with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

// WriteError converts any error into a standardized apperror.ErrorResponse.
// Errors that are not already AppErrors become 500s; server-side failures are logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"err", appErr)
	}

	WriteJSON(w, status, appErr.ToResponse())
}
