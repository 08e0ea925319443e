package identity

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
)

// Claims are the access token claims issued by the upstream identity
// provider.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// RevocationList reports tokens revoked before their expiry.
type RevocationList interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenVerifier validates HS256 access tokens and resolves them to a user.
type TokenVerifier struct {
	signingKey []byte
	issuer     string
	revocation RevocationList
}

// VerifierOption configures a TokenVerifier.
type VerifierOption func(*TokenVerifier)

// WithRevocationList makes Verify reject tokens whose jti was revoked.
func WithRevocationList(trl RevocationList) VerifierOption {
	return func(v *TokenVerifier) {
		v.revocation = trl
	}
}

func NewTokenVerifier(signingKey, issuer string, opts ...VerifierOption) *TokenVerifier {
	v := &TokenVerifier{signingKey: []byte(signingKey), issuer: issuer}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify returns the user a token was issued for. Every failure is a
// CodeUnauthorized error.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (id.UserID, error) {
	if token == "" {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "missing token")
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return v.signingKey, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}

	if v.revocation != nil && claims.ID != "" {
		revoked, err := v.revocation.IsRevoked(ctx, claims.ID)
		if err != nil {
			return id.UserID{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "unable to check token revocation")
		}
		if revoked {
			return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
		}
	}

	return userID, nil
}
