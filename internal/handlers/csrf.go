package handlers

import (
	"net/http"

	"github.com/dbpilot/aegis/internal/auth"
	"github.com/dbpilot/aegis/internal/security"
	pkghttp "github.com/dbpilot/aegis/pkg/http"
)

// CSRFHandler issues and rotates per-session CSRF tokens. The in-memory
// token slot is advisory for the dashboard UI; state-changing dashboard
// calls still re-validate server-side.
type CSRFHandler struct {
	manager *security.CSRFManager
}

// NewCSRFHandler creates a new CSRFHandler
func NewCSRFHandler(manager *security.CSRFManager) *CSRFHandler {
	return &CSRFHandler{manager: manager}
}

// CSRFTokenResponse carries a token and its expiry
type CSRFTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// GetToken handles GET /v1/security/csrf-token. Repeated calls within the
// validity window return the same token.
func (h *CSRFHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	token, expiry, err := h.manager.GetToken(claims.UserID)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to issue token")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, CSRFTokenResponse{
		Token:     token,
		ExpiresAt: expiry.UnixMilli(),
	})
}

// RotateToken handles POST /v1/security/csrf-token/rotate. The previous
// token stops validating immediately.
func (h *CSRFHandler) RotateToken(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	token, expiry, err := h.manager.Rotate(claims.UserID)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to rotate token")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, CSRFTokenResponse{
		Token:     token,
		ExpiresAt: expiry.UnixMilli(),
	})
}
