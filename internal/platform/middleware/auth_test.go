package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridges/internal/platform/logger"
	id "bridges/pkg/domain"
	"bridges/pkg/requestcontext"
)

type verifierFunc func(ctx context.Context, token string) (id.UserID, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (id.UserID, error) {
	return f(ctx, token)
}

func TestRequireAuth(t *testing.T) {
	alice := id.NewUserID()
	verifier := verifierFunc(func(_ context.Context, token string) (id.UserID, error) {
		if token == "good" {
			return alice, nil
		}
		return id.UserID{}, errors.New("bad signature")
	})

	var seen id.UserID
	h := RequireAuth(verifier, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token populates identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, alice, seen)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"authentication_error"`)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid or expired token")
	})

	t.Run("query token ignored for plain HTTP", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?access_token=good", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	verifier := verifierFunc(func(context.Context, string) (id.UserID, error) {
		return id.UserID{}, errors.New("expired")
	})
	var anonymous bool
	h := OptionalAuth(verifier, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := requestcontext.Viewer(r.Context())
		anonymous = !ok
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, anonymous)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?access_token=q", nil)
	assert.Equal(t, "q", BearerToken(req, true))
	assert.Equal(t, "", BearerToken(req, false))

	req.Header.Set("Authorization", "Bearer h")
	assert.Equal(t, "h", BearerToken(req, true))
}
