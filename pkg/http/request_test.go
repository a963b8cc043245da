package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dbpilot/aegis/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONBody(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"name":"aegis"}`)))
	rec := httptest.NewRecorder()

	err := DecodeJSONBody(rec, req, &dst, 1000)
	require.NoError(t, err)
	assert.Equal(t, "aegis", dst.Name)
}

func TestDecodeJSONBody_Malformed(t *testing.T) {
	var dst map[string]interface{}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{broken`)))
	rec := httptest.NewRecorder()

	err := DecodeJSONBody(rec, req, &dst, 1000)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestDecodeJSONBody_TooLarge(t *testing.T) {
	var dst map[string]interface{}

	body := `{"data":"` + strings.Repeat("a", 2000) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()

	err := DecodeJSONBody(rec, req, &dst, 100)
	assert.ErrorIs(t, err, models.ErrPayloadTooLarge)
}

func TestExtractClientIP_DirectConnection(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:54321"

	assert.Equal(t, "203.0.113.9", ExtractClientIP(req, &IPConfig{}))
}

func TestExtractClientIP_HeadersIgnoredWithoutTrustedProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:54321"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	req.Header.Set("X-Real-IP", "198.51.100.2")

	// Spoofed headers from an untrusted peer do not change the identifier
	assert.Equal(t, "203.0.113.9", ExtractClientIP(req, &IPConfig{}))
}

func TestExtractClientIP_TrustedProxyHonorsForwardedFor(t *testing.T) {
	config := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.1.2.3")

	assert.Equal(t, "198.51.100.1", ExtractClientIP(req, config))
}

func TestExtractClientIP_TrustedProxyFallsBackToRealIP(t *testing.T) {
	config := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Real-IP", "198.51.100.2")

	assert.Equal(t, "198.51.100.2", ExtractClientIP(req, config))
}

func TestExtractClientIP_InvalidForwardedEntriesSkipped(t *testing.T) {
	config := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Forwarded-For", "garbage, 198.51.100.7")

	assert.Equal(t, "198.51.100.7", ExtractClientIP(req, config))
}
