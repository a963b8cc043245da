package models

// CSPReport is the browser-native Content-Security-Policy violation report,
// delivered as {"csp-report": {...}} with kebab-case keys.
type CSPReport struct {
	DocumentURI        string `json:"document-uri"`
	Referrer           string `json:"referrer"`
	ViolatedDirective  string `json:"violated-directive"`
	EffectiveDirective string `json:"effective-directive"`
	BlockedURI         string `json:"blocked-uri"`
	SourceFile         string `json:"source-file"`
	LineNumber         int    `json:"line-number"`
	ColumnNumber       int    `json:"column-number"`
	OriginalPolicy     string `json:"original-policy"`
}

// ViolationReport is the dashboard's own wrapper format, sent by the frontend
// monitoring hook instead of the native report when it intercepts violations.
type ViolationReport struct {
	DocumentURI       string `json:"documentUri"`
	ViolatedDirective string `json:"violatedDirective"`
	BlockedURI        string `json:"blockedUri"`
	SourceFile        string `json:"sourceFile"`
	LineNumber        int    `json:"lineNumber"`
	Disposition       string `json:"disposition"`
}

// CSPReportEnvelope accepts either delivery format on the report endpoint
type CSPReportEnvelope struct {
	Native *CSPReport       `json:"csp-report"`
	Custom *ViolationReport `json:"violationReport"`
}
