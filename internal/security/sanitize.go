package security

// Sanitize strips XSS category matches from the input and returns the result.
// Only HTML/script patterns are removed: SQL and shell signatures are reported
// by Classify but left intact, because the caller is expected to reject those
// inputs outright rather than silently rewrite a query or command. Removal
// never introduces characters, so the output is never longer than the input.
func Sanitize(input string) string {
	if input == "" {
		return input
	}

	sanitized := input
	for _, p := range xssStripPatterns {
		sanitized = p.ReplaceAllString(sanitized, "")
	}
	return sanitized
}
