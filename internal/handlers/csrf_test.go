package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dbpilot/aegis/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFHandler_GetTokenIdempotent(t *testing.T) {
	handler := NewCSRFHandler(security.NewCSRFManager(time.Hour))

	rec := httptest.NewRecorder()
	handler.GetToken(rec, authedRequest(http.MethodGet, "/v1/security/csrf-token", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var first CSRFTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.NotEmpty(t, first.Token)
	assert.Greater(t, first.ExpiresAt, time.Now().UnixMilli())

	rec = httptest.NewRecorder()
	handler.GetToken(rec, authedRequest(http.MethodGet, "/v1/security/csrf-token", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var second CSRFTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)
}

func TestCSRFHandler_RotateReplacesToken(t *testing.T) {
	manager := security.NewCSRFManager(time.Hour)
	handler := NewCSRFHandler(manager)

	rec := httptest.NewRecorder()
	handler.GetToken(rec, authedRequest(http.MethodGet, "/v1/security/csrf-token", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var old CSRFTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &old))

	rec = httptest.NewRecorder()
	handler.RotateToken(rec, authedRequest(http.MethodPost, "/v1/security/csrf-token/rotate", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var fresh CSRFTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fresh))
	assert.NotEqual(t, old.Token, fresh.Token)

	// The token slot is single: only the replacement validates
	assert.False(t, manager.Validate("user-1", old.Token))
	assert.True(t, manager.Validate("user-1", fresh.Token))
}

func TestCSRFHandler_Unauthenticated(t *testing.T) {
	handler := NewCSRFHandler(security.NewCSRFManager(time.Hour))

	rec := httptest.NewRecorder()
	handler.GetToken(rec, httptest.NewRequest(http.MethodGet, "/v1/security/csrf-token", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.RotateToken(rec, httptest.NewRequest(http.MethodPost, "/v1/security/csrf-token/rotate", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
