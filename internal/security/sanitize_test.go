package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty input", "", ""},
		{"plain text untouched", "hello world", "hello world"},
		{"script tag and contents removed", "before<script>alert(1)</script>after", "beforeafter"},
		{"iframe removed", `a<iframe src="https://evil.example">x</iframe>b`, "ab"},
		{"javascript uri removed", "javascript:alert(1)", "alert(1)"},
		{"event handler removed", `<img src=x onerror=alert(1)>`, ""},
		{"stray tags removed", "<b>bold</b> text", "bold text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitize_LeavesSQLIntact(t *testing.T) {
	// SQL signatures are reported, never rewritten
	input := "'; DROP TABLE users; --"
	assert.Equal(t, input, Sanitize(input))
}

func TestSanitize_LeavesShellIntact(t *testing.T) {
	input := "foo | rm -rf / && $(whoami)"
	assert.Equal(t, input, Sanitize(input))
}

func TestSanitize_NeverGrows(t *testing.T) {
	inputs := []string{
		"<script>alert(1)</script>",
		"plain",
		strings.Repeat("<script>x</script>", 50),
		`<img src=x onerror="alert(1)">trailing`,
	}

	for _, input := range inputs {
		assert.LessOrEqual(t, len(Sanitize(input)), len(input))
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	input := `text <script>a</script> <iframe>b</iframe> javascript:c onload=d <span>e</span>`

	once := Sanitize(input)
	twice := Sanitize(once)

	assert.Equal(t, once, twice)
}
