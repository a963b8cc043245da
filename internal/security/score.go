package security

import (
	"strings"

	"github.com/dbpilot/aegis/internal/models"
)

// Threat scoring for CSP violation reports. Additive heuristic: every report
// starts at the base score and accumulates per-signal increments, capped at
// the maximum. Severity is derived by thresholding the final score.
const (
	scoreBase            = 10
	scoreScriptDirective = 30
	scoreJavascriptURI   = 40
	scoreDataURI         = 20
	scorePlainHTTP       = 15
	scoreMax             = 100

	severityHighThreshold   = 70
	severityMediumThreshold = 40
)

// ScoreCSPViolation computes the 0-100 threat score for a violated directive
// and the URI that was blocked.
func ScoreCSPViolation(violatedDirective, blockedURI string) int {
	score := scoreBase

	directive := strings.ToLower(violatedDirective)
	uri := strings.ToLower(blockedURI)

	if strings.Contains(directive, "script") {
		score += scoreScriptDirective
	}
	if strings.HasPrefix(uri, "javascript:") {
		score += scoreJavascriptURI
	}
	if strings.HasPrefix(uri, "data:") {
		score += scoreDataURI
	}
	if strings.HasPrefix(uri, "http:") {
		score += scorePlainHTTP
	}

	if score > scoreMax {
		score = scoreMax
	}
	return score
}

// SeverityForScore maps a threat score to an event severity
func SeverityForScore(score int) string {
	switch {
	case score >= severityHighThreshold:
		return models.SeverityHigh
	case score >= severityMediumThreshold:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
