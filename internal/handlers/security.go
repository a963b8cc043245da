package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dbpilot/aegis/internal/auth"
	"github.com/dbpilot/aegis/internal/models"
	"github.com/dbpilot/aegis/internal/services"
	pkghttp "github.com/dbpilot/aegis/pkg/http"
)

// ValidationServiceInterface defines the input validation business logic
type ValidationServiceInterface interface {
	Validate(ctx context.Context, input string, validationType models.ValidationType, fieldContext string, actor services.Actor) (*models.ValidationResult, error)
}

// RateLimitServiceInterface defines the rate limiting business logic
type RateLimitServiceInterface interface {
	Check(ctx context.Context, identifier, action string, policy models.RateLimitPolicy, actor services.Actor) (models.RateLimitDecision, error)
}

// CSPReportServiceInterface defines CSP violation report handling
type CSPReportServiceInterface interface {
	RecordNative(ctx context.Context, report *models.CSPReport, actor services.Actor) error
	RecordCustom(ctx context.Context, report *models.ViolationReport, actor services.Actor) error
}

// SecurityHandler exposes the edge validation, rate limit and CSP report
// endpoints. All routes are bearer-gated by the auth middleware before these
// methods run.
type SecurityHandler struct {
	validation   ValidationServiceInterface
	rateLimiter  RateLimitServiceInterface
	cspReports   CSPReportServiceInterface
	maxBodyBytes int64
	ipConfig     *pkghttp.IPConfig
}

// NewSecurityHandler creates a new SecurityHandler
func NewSecurityHandler(
	validation ValidationServiceInterface,
	rateLimiter RateLimitServiceInterface,
	cspReports CSPReportServiceInterface,
	maxBodyBytes int64,
	ipConfig *pkghttp.IPConfig,
) *SecurityHandler {
	return &SecurityHandler{
		validation:   validation,
		rateLimiter:  rateLimiter,
		cspReports:   cspReports,
		maxBodyBytes: maxBodyBytes,
		ipConfig:     ipConfig,
	}
}

// Request/response DTOs

// ValidateInputRequest is the body for POST /v1/security/validate
type ValidateInputRequest struct {
	Input          string `json:"input"`
	ValidationType string `json:"validationType" validate:"required,oneof=general database html system"`
	Context        string `json:"context" validate:"max=200"`
}

// RateLimitPolicyDTO carries the caller's throttle parameters in milliseconds
type RateLimitPolicyDTO struct {
	MaxAttempts     int   `json:"maxAttempts" validate:"gte=0,lte=1000"`
	WindowMs        int64 `json:"windowMs" validate:"gte=0"`
	BlockDurationMs int64 `json:"blockDurationMs" validate:"gte=0"`
}

// RateLimitCheckRequest is the body for POST /v1/security/rate-limit
type RateLimitCheckRequest struct {
	Identifier string             `json:"identifier" validate:"required,max=256"`
	Action     string             `json:"action" validate:"required,max=64"`
	Config     RateLimitPolicyDTO `json:"config"`
}

// RateLimitCheckResponse mirrors the decision with an epoch-ms reset time
type RateLimitCheckResponse struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	ResetTime int64  `json:"resetTime"`
	Reason    string `json:"reason,omitempty"`
}

// ValidateInput handles POST /v1/security/validate
func (h *SecurityHandler) ValidateInput(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req ValidateInputRequest
	if err := pkghttp.DecodeJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	actor := h.actorFromRequest(r, claims)

	result, err := h.validation.Validate(r.Context(), req.Input, models.ValidationType(req.ValidationType), req.Context, actor)
	if err != nil {
		// Fail closed: an input we could not fully process is reported as a threat
		pkghttp.WriteJSON(w, http.StatusInternalServerError, models.ValidationResult{
			IsValid:     false,
			HasThreats:  true,
			ThreatTypes: []string{},
			RiskLevel:   models.RiskLevelHigh,
		})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// CheckRateLimit handles POST /v1/security/rate-limit
func (h *SecurityHandler) CheckRateLimit(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req RateLimitCheckRequest
	if err := pkghttp.DecodeJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	policy := models.RateLimitPolicy{
		MaxAttempts:   req.Config.MaxAttempts,
		Window:        time.Duration(req.Config.WindowMs) * time.Millisecond,
		BlockDuration: time.Duration(req.Config.BlockDurationMs) * time.Millisecond,
	}

	actor := h.actorFromRequest(r, claims)

	decision, err := h.rateLimiter.Check(r.Context(), req.Identifier, req.Action, policy, actor)
	if err != nil {
		// Fail closed: the denial decision is already in the response body
		pkghttp.WriteJSON(w, http.StatusInternalServerError, decisionToResponse(decision))
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, decisionToResponse(decision))
}

// ReportCSPViolation handles POST /v1/security/csp-report. It accepts both
// the browser-native csp-report format and the dashboard's violationReport
// wrapper, and responds 204 on success.
func (h *SecurityHandler) ReportCSPViolation(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var envelope models.CSPReportEnvelope
	if err := pkghttp.DecodeJSONBody(w, r, &envelope, h.maxBodyBytes); err != nil {
		writeDecodeError(w, err)
		return
	}

	actor := h.actorFromRequest(r, claims)

	var err error
	switch {
	case envelope.Native != nil:
		err = h.cspReports.RecordNative(r.Context(), envelope.Native, actor)
	case envelope.Custom != nil:
		err = h.cspReports.RecordCustom(r.Context(), envelope.Custom, actor)
	default:
		pkghttp.WriteBadRequest(w, "missing csp-report or violationReport payload")
		return
	}

	if err != nil {
		pkghttp.WriteInternalError(w, "failed to record violation report")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SecurityHandler) actorFromRequest(r *http.Request, claims *models.TokenClaims) services.Actor {
	return services.Actor{
		ID:        claims.UserID,
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
	}
}

func decisionToResponse(decision models.RateLimitDecision) RateLimitCheckResponse {
	return RateLimitCheckResponse{
		Allowed:   decision.Allowed,
		Remaining: decision.Remaining,
		ResetTime: decision.ResetTime.UnixMilli(),
		Reason:    decision.Reason,
	}
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrPayloadTooLarge) {
		pkghttp.WritePayloadTooLarge(w, "request body exceeds size limit")
		return
	}
	pkghttp.WriteBadRequest(w, "invalid request body")
}
