package rendering

import "strings"

var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`$`, `\$`,
	`&`, `\&`,
	`%`, `\%`,
	`#`, `\#`,
	`^`, `\textasciicircum{}`,
	`_`, `\_`,
	`~`, `\textasciitilde{}`,
	"–", "--",
	"—", "---",
)

// EscapeLaTeX escapes LaTeX special characters in text and maps en and em
// dashes to their ligature forms.
func EscapeLaTeX(text string) string {
	return latexReplacer.Replace(text)
}
