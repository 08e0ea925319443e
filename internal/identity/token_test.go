package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
)

const testKey = "test-signing-key"

func signToken(t *testing.T, key string, claims Claims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func claimsFor(userID string, expiresIn time.Duration) Claims {
	now := time.Now()
	return Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "bridges-test",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
}

func TestTokenVerifier(t *testing.T) {
	ctx := context.Background()
	alice := id.NewUserID()
	verifier := NewTokenVerifier(testKey, "bridges-test")

	t.Run("valid token resolves user", func(t *testing.T) {
		got, err := verifier.Verify(ctx, signToken(t, testKey, claimsFor(alice.String(), time.Hour), jwt.SigningMethodHS256))
		require.NoError(t, err)
		assert.Equal(t, alice, got)
	})

	failures := map[string]string{
		"empty":         "",
		"garbage":       "not-a-jwt",
		"wrong key":     signToken(t, "other-key", claimsFor(alice.String(), time.Hour), jwt.SigningMethodHS256),
		"expired":       signToken(t, testKey, claimsFor(alice.String(), -time.Minute), jwt.SigningMethodHS256),
		"wrong alg":     signToken(t, testKey, claimsFor(alice.String(), time.Hour), jwt.SigningMethodHS512),
		"bad subject":   signToken(t, testKey, claimsFor("nobody", time.Hour), jwt.SigningMethodHS256),
		"wrong issuer":  signToken(t, testKey, func() Claims { c := claimsFor(alice.String(), time.Hour); c.Issuer = "evil"; return c }(), jwt.SigningMethodHS256),
		"nil uuid user": signToken(t, testKey, claimsFor(uuid.Nil.String(), time.Hour), jwt.SigningMethodHS256),
		"no expiry":     signToken(t, testKey, func() Claims { c := claimsFor(alice.String(), time.Hour); c.ExpiresAt = nil; return c }(), jwt.SigningMethodHS256),
	}
	for name, token := range failures {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(ctx, token)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		})
	}
}

func TestTokenVerifierRevocation(t *testing.T) {
	ctx := context.Background()
	trl := NewInMemoryTRL()
	verifier := NewTokenVerifier(testKey, "", WithRevocationList(trl))
	claims := claimsFor(id.NewUserID().String(), time.Hour)
	token := signToken(t, testKey, claims, jwt.SigningMethodHS256)

	_, err := verifier.Verify(ctx, token)
	require.NoError(t, err)

	require.NoError(t, trl.RevokeToken(ctx, claims.ID, time.Hour))
	_, err = verifier.Verify(ctx, token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revoked")
}

func TestInMemoryTRLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	trl := NewInMemoryTRL()
	trl.now = func() time.Time { return now }

	require.NoError(t, trl.RevokeToken(ctx, "jti-1", time.Minute))
	revoked, _ := trl.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	trl.now = func() time.Time { return now.Add(2 * time.Minute) }
	revoked, _ = trl.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)

	revoked, _ = trl.IsRevoked(ctx, "unknown")
	assert.False(t, revoked)
}
