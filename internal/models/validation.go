package models

// ValidationType selects which threat pattern families apply to an input
type ValidationType string

const (
	ValidationTypeGeneral  ValidationType = "general"
	ValidationTypeDatabase ValidationType = "database"
	ValidationTypeHTML     ValidationType = "html"
	ValidationTypeSystem   ValidationType = "system"
)

// Threat category tags returned by the pattern matcher
const (
	ThreatSQLInjection     = "sql_injection"
	ThreatXSSAttempt       = "xss_attempt"
	ThreatCommandInjection = "command_injection"
	ThreatPathTraversal    = "path_traversal"
)

// Risk levels derived from the number of detected threat categories
const (
	RiskLevelLow    = "low"
	RiskLevelMedium = "medium"
	RiskLevelHigh   = "high"
)

// ValidationResult is the ephemeral outcome of validating one input string.
// It is returned to the caller and never persisted.
type ValidationResult struct {
	IsValid        bool     `json:"isValid"`
	HasThreats     bool     `json:"hasThreats"`
	ThreatTypes    []string `json:"threatTypes"`
	SanitizedInput string   `json:"sanitizedInput"`
	RiskLevel      string   `json:"riskLevel"`
}

// RiskLevelForThreatCount maps the number of detected categories to a level:
// 0 is low, 1-2 medium, more than 2 high.
func RiskLevelForThreatCount(n int) string {
	switch {
	case n == 0:
		return RiskLevelLow
	case n <= 2:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}
