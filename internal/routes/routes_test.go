package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dbpilot/aegis/internal/auth"
	"github.com/dbpilot/aegis/internal/handlers"
	"github.com/dbpilot/aegis/internal/middleware"
	"github.com/dbpilot/aegis/internal/models"
	"github.com/dbpilot/aegis/internal/routes"
	"github.com/dbpilot/aegis/internal/security"
	"github.com/dbpilot/aegis/internal/services"
	pkghttp "github.com/dbpilot/aegis/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-with-enough-length-for-hmac"

type stubValidationService struct {
	calls int
}

func (s *stubValidationService) Validate(_ context.Context, _ string, _ models.ValidationType, _ string, _ services.Actor) (*models.ValidationResult, error) {
	s.calls++
	return &models.ValidationResult{IsValid: true, ThreatTypes: []string{}, RiskLevel: models.RiskLevelLow}, nil
}

type stubRateLimitService struct {
	calls int
}

func (s *stubRateLimitService) Check(_ context.Context, _, _ string, _ models.RateLimitPolicy, _ services.Actor) (models.RateLimitDecision, error) {
	s.calls++
	return models.RateLimitDecision{Allowed: true, Remaining: 1, ResetTime: time.Now()}, nil
}

type stubCSPReportService struct{}

func (stubCSPReportService) RecordNative(context.Context, *models.CSPReport, services.Actor) error {
	return nil
}

func (stubCSPReportService) RecordCustom(context.Context, *models.ViolationReport, services.Actor) error {
	return nil
}

type stubEventReader struct{}

func (stubEventReader) GetByActorID(context.Context, string, int, int) ([]*models.SecurityEvent, error) {
	return nil, nil
}

func (stubEventReader) CountByActorID(context.Context, string) (int64, error) { return 0, nil }

func newTestRouter(validation *stubValidationService, rateLimiter *stubRateLimitService) (chi.Router, *auth.TokenManager) {
	tokenManager := auth.NewTokenManager(testSecret)

	securityHandler := handlers.NewSecurityHandler(validation, rateLimiter, stubCSPReportService{}, 5000, &pkghttp.IPConfig{})
	csrfHandler := handlers.NewCSRFHandler(security.NewCSRFManager(time.Hour))
	eventsHandler := handlers.NewEventsHandler(stubEventReader{})

	router := chi.NewRouter()
	routes.RegisterRoutes(router, securityHandler, csrfHandler, eventsHandler, nil, tokenManager, middleware.IPRateLimitConfig{RequestsPerMinute: 1000})
	return router, tokenManager
}

func validateBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]string{"input": "hello", "validationType": "general"})
	require.NoError(t, err)
	return body
}

func TestRoutes_MissingBearerRejectedBeforeAnyWork(t *testing.T) {
	validation := &stubValidationService{}
	router, _ := newTestRouter(validation, &stubRateLimitService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/security/validate", bytes.NewReader(validateBody(t)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, validation.calls)
}

func TestRoutes_MalformedAuthorizationHeader(t *testing.T) {
	router, _ := newTestRouter(&stubValidationService{}, &stubRateLimitService{})

	for _, header := range []string{"Basic abc", "Bearer", "token-without-scheme"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/security/validate", bytes.NewReader(validateBody(t)))
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRoutes_WrongSecretRejected(t *testing.T) {
	router, _ := newTestRouter(&stubValidationService{}, &stubRateLimitService{})

	otherManager := auth.NewTokenManager("a-different-secret-also-long-enough")
	token, err := otherManager.GenerateToken("user-1", "user@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/security/validate", bytes.NewReader(validateBody(t)))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_ValidBearerReachesHandler(t *testing.T) {
	validation := &stubValidationService{}
	router, tokenManager := newTestRouter(validation, &stubRateLimitService{})

	token, err := tokenManager.GenerateToken("user-1", "user@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/security/validate", bytes.NewReader(validateBody(t)))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, validation.calls)
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	router, tokenManager := newTestRouter(&stubValidationService{}, &stubRateLimitService{})

	token, err := tokenManager.GenerateToken("user-1", "user@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/security/validate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}

func TestRoutes_DemoRoutesAbsentWhenNotConfigured(t *testing.T) {
	router, tokenManager := newTestRouter(&stubValidationService{}, &stubRateLimitService{})

	token, err := tokenManager.GenerateToken("user-1", "user@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/demo/session", bytes.NewReader([]byte(`{"email":"demo@example.com"}`)))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes_CSRFTokenFlow(t *testing.T) {
	router, tokenManager := newTestRouter(&stubValidationService{}, &stubRateLimitService{})

	token, err := tokenManager.GenerateToken("user-1", "user@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/security/csrf-token", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var issued handlers.CSRFTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	assert.NotEmpty(t, issued.Token)

	req = httptest.NewRequest(http.MethodPost, "/v1/security/csrf-token/rotate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var rotated handlers.CSRFTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))
	assert.NotEqual(t, issued.Token, rotated.Token)
}
