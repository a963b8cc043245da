package security

import (
	"regexp"

	"github.com/dbpilot/aegis/internal/models"
)

// Threat pattern families, compiled once at package init. Regex matching is a
// coarse first-pass heuristic, not a parser: it catches the common injection
// shapes but makes no semantic guarantee about SQL or HTML. Callers must treat
// a clean result as "no known signature", never as "safe".

var sqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER)\b`),
	regexp.MustCompile(`(?i)\bUNION\b[\s\S]{0,64}?\bSELECT\b`),
	regexp.MustCompile(`--|#|\|\||&&`),
	regexp.MustCompile(`(?i)<script|javascript:|vbscript:`),
}

// xssStripPatterns are both detected and destructively removed by Sanitize.
// Order matters: whole script/iframe blocks go first so the residual-tag
// pattern doesn't leave their inner content behind.
var xssStripPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?is)<iframe[^>]*>.*?</iframe>`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
	regexp.MustCompile(`<[^>]*>`),
}

var systemPatterns = []*regexp.Regexp{
	regexp.MustCompile("[|;&`]|\\$\\(|\\$\\{"),
	regexp.MustCompile(`(?i)\b(rm|cat|ls|ps|kill|sudo)\b`),
}

// Path traversal is checked regardless of validation type
var pathTraversalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.\./`),
	regexp.MustCompile(`\.\.\\`),
}

// Classify scans input against the pattern families selected by validationType
// and returns the detected threat category tags, each at most once, in
// detection order. It is a pure function: empty input yields no threats.
func Classify(input string, validationType models.ValidationType) []string {
	threats := make([]string, 0, 4)
	if input == "" {
		return threats
	}

	general := validationType == models.ValidationTypeGeneral

	if general || validationType == models.ValidationTypeDatabase {
		if anyMatch(sqlPatterns, input) {
			threats = append(threats, models.ThreatSQLInjection)
		}
	}

	if general || validationType == models.ValidationTypeHTML {
		if anyMatch(xssStripPatterns, input) {
			threats = append(threats, models.ThreatXSSAttempt)
		}
	}

	if general || validationType == models.ValidationTypeSystem {
		if anyMatch(systemPatterns, input) {
			threats = append(threats, models.ThreatCommandInjection)
		}
	}

	if anyMatch(pathTraversalPatterns, input) {
		threats = append(threats, models.ThreatPathTraversal)
	}

	return threats
}

func anyMatch(patterns []*regexp.Regexp, input string) bool {
	for _, p := range patterns {
		if p.MatchString(input) {
			return true
		}
	}
	return false
}
