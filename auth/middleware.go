package auth

import (
	"net/http"
	"strings"

	"github.com/user/accounts-go/apperror"
)

// Middleware rejects requests without a valid access token and stores the token's
// user id in the request context. Both "Bearer <token>" and "Token <token>" are accepted.
func Middleware(tokens *TokenService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, appErr := bearerToken(r)
			if appErr != nil {
				WriteError(w, r, appErr)
				return
			}

			claims, err := tokens.ValidateAccess(tokenString)
			if err != nil {
				WriteError(w, r, apperror.NewAuthError("Invalid token.", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

func bearerToken(r *http.Request) (string, *apperror.AppError) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperror.NewAuthError("Authentication credentials were not provided.", nil)
	}

	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", apperror.NewAuthError("Invalid token header. Expected '<Bearer|Token> {token}'.", nil)
	}
	switch strings.ToLower(parts[0]) {
	case "bearer", "token":
		return parts[1], nil
	default:
		return "", apperror.NewAuthError("Invalid token header. Expected '<Bearer|Token> {token}'.", nil)
	}
}
