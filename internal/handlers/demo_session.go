package handlers

import (
	"errors"
	"net/http"

	"github.com/dbpilot/aegis/internal/auth"
	"github.com/dbpilot/aegis/internal/models"
	"github.com/dbpilot/aegis/internal/services"
	pkghttp "github.com/dbpilot/aegis/pkg/http"
)

// DemoSessionHandler issues and verifies encrypted demo-session tokens
type DemoSessionHandler struct {
	service      *services.DemoSessionService
	maxBodyBytes int64
	ipConfig     *pkghttp.IPConfig
}

// NewDemoSessionHandler creates a new DemoSessionHandler
func NewDemoSessionHandler(service *services.DemoSessionService, maxBodyBytes int64, ipConfig *pkghttp.IPConfig) *DemoSessionHandler {
	return &DemoSessionHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
		ipConfig:     ipConfig,
	}
}

// CreateDemoSessionRequest is the body for POST /v1/demo/session
type CreateDemoSessionRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// DemoSessionResponse carries a sealed session token
type DemoSessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	ExpiresAt int64  `json:"expiresAt"`
}

// VerifyDemoSessionRequest is the body for POST /v1/demo/session/verify
type VerifyDemoSessionRequest struct {
	Token string `json:"token" validate:"required"`
}

// VerifyDemoSessionResponse reports whether a token still opens
type VerifyDemoSessionResponse struct {
	Valid     bool   `json:"valid"`
	SessionID string `json:"sessionId,omitempty"`
	Email     string `json:"email,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Create handles POST /v1/demo/session
func (h *DemoSessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req CreateDemoSessionRequest
	if err := pkghttp.DecodeJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	actor := services.Actor{
		ID:        claims.UserID,
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
	}

	token, session, err := h.service.Issue(r.Context(), req.Email, actor)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to create demo session")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, DemoSessionResponse{
		Token:     token,
		SessionID: session.SessionID,
		ExpiresAt: session.ExpiresAt.UnixMilli(),
	})
}

// Verify handles POST /v1/demo/session/verify
func (h *DemoSessionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req VerifyDemoSessionRequest
	if err := pkghttp.DecodeJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	session, err := h.service.Verify(req.Token)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, models.ErrSessionExpired) {
			reason = "expired"
		}
		pkghttp.WriteJSON(w, http.StatusOK, VerifyDemoSessionResponse{
			Valid:  false,
			Reason: reason,
		})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, VerifyDemoSessionResponse{
		Valid:     true,
		SessionID: session.SessionID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt.UnixMilli(),
	})
}
