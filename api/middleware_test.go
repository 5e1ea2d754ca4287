package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marinsell/onwater-studio/config"
	"github.com/marinsell/onwater-studio/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setJWTSecret(t *testing.T, secret string) {
	t.Helper()
	orig := config.JWTSecret
	t.Cleanup(func() { config.JWTSecret = orig })
	config.JWTSecret = secret
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/gallery", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	setJWTSecret(t, "test-secret")

	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/gallery", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewarePassesUserIDThrough(t *testing.T) {
	setJWTSecret(t, "test-secret")

	token, err := utils.GenerateToken("64f1c0ffee0000000000cafe")
	require.NoError(t, err)

	var gotUserID string
	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/gallery", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "64f1c0ffee0000000000cafe", gotUserID)
}

func TestGetUserIDFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetUserIDFromContext(req.Context())
	assert.Error(t, err)
}
