package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLaTeX(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Built data pipelines", "Built data pipelines"},
		{"backslash", `a\b`, `a\textbackslash{}b`},
		{"braces", "x{y}z", `x\{y\}z`},
		{"money and percent", "$2M at 40%", `\$2M at 40\%`},
		{"ampersand and hash", "R&D #1", `R\&D \#1`},
		{"caret underscore tilde", "a^b_c~d", `a\textasciicircum{}b\_c\textasciitilde{}d`},
		{"dashes", "2019 – 2021 — remote", "2019 -- 2021 --- remote"},
		{"unicode kept", "Zürich", "Zürich"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeLaTeX(tt.in))
		})
	}
}

func TestEscapeLaTeX_BackslashNotDoubleEscaped(t *testing.T) {
	// the braces produced for a backslash must not be escaped again
	assert.Equal(t, `\textbackslash{}\{`, EscapeLaTeX(`\{`))
}
