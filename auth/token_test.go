package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/accounts-go/config"
)

func newTestTokenService() *TokenService {
	return NewTokenService(config.AuthConfig{
		JWTSecret:            "test-secret",
		AccessTokenDuration:  time.Hour,
		RefreshTokenDuration: 24 * time.Hour,
	})
}

func TestIssuePairAndValidate(t *testing.T) {
	svc := newTestTokenService()

	pair, err := svc.IssuePair(42)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	claims, err := svc.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	claims, err = svc.ValidateRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
}

func TestTokensAreUnique(t *testing.T) {
	svc := newTestTokenService()
	a, _, err := svc.IssueAccess(1)
	require.NoError(t, err)
	b, _, err := svc.IssueAccess(1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidate_WrongType(t *testing.T) {
	svc := newTestTokenService()
	pair, err := svc.IssuePair(7)
	require.NoError(t, err)

	_, err = svc.ValidateAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	_, err = svc.ValidateRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidate_Expired(t *testing.T) {
	svc := newTestTokenService()
	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }

	token, _, err := svc.IssueAccess(7)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_WrongSecret(t *testing.T) {
	token, _, err := newTestTokenService().IssueAccess(7)
	require.NoError(t, err)

	other := NewTokenService(config.AuthConfig{JWTSecret: "other", AccessTokenDuration: time.Hour})
	_, err = other.ValidateAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsNoneAlgorithm(t *testing.T) {
	claims := &CustomClaims{
		UserID:    7,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestTokenService().ValidateAccess(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Garbage(t *testing.T) {
	_, err := newTestTokenService().ValidateAccess("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
