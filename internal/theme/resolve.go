package theme

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-editor/internal/types"
)

// Request carries raw, unvalidated theme directives. Empty fields keep the base value.
type Request struct {
	Font            string `json:"font,omitempty"`
	PrimaryColor    string `json:"primary_color,omitempty"`
	AccentColor     string `json:"accent_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	Layout          string `json:"layout,omitempty"`
	Spacing         string `json:"spacing,omitempty"`
}

// Empty reports whether the request changes nothing
func (r Request) Empty() bool {
	return r == Request{}
}

// Fonts the renderer can embed
var fonts = []string{
	"Inter", "Roboto", "Lato", "Open Sans", "Source Sans Pro", "Montserrat", "Merriweather",
	"Georgia", "Garamond", "Helvetica", "Arial", "Calibri", "Times New Roman",
}

var layoutAliases = map[string]string{
	"single-column": "single-column", "single column": "single-column", "single": "single-column",
	"one column": "single-column", "one-column": "single-column", "1-column": "single-column",
	"two-column": "two-column", "two column": "two-column", "two": "two-column",
	"2-column": "two-column", "2 column": "two-column", "sidebar": "two-column",
	"compact": "compact",
}

var spacingAliases = map[string]string{
	"compact": "compact", "tight": "compact", "condensed": "compact", "dense": "compact",
	"normal": "normal", "default": "normal", "standard": "normal", "regular": "normal",
	"relaxed": "relaxed", "spacious": "relaxed", "airy": "relaxed", "loose": "relaxed",
}

// Default returns the theme used when nothing is requested
func Default() types.Theme {
	return types.Theme{
		Font:            "Inter",
		PrimaryColor:    "#1e3a8a",
		AccentColor:     "#0ea5e9",
		TextColor:       "#111827",
		BackgroundColor: "#ffffff",
		Layout:          "single-column",
		Spacing:         "normal",
	}
}

func findFont(text string) (string, bool) {
	lower := strings.ToLower(text)
	best := ""
	for _, f := range fonts {
		if strings.Contains(lower, strings.ToLower(f)) && len(f) > len(best) {
			best = f
		}
	}
	return best, best != ""
}

// Resolve applies req on top of base (or the default theme) and returns a
// theme whose every field is valid. Rejected values keep the base value and
// produce a warning, as does text that fails AA contrast on the background.
func Resolve(base *types.Theme, req Request) (types.Theme, []string) {
	out := Default()
	if base != nil {
		out = mergeValid(out, *base)
	}
	var warnings []string

	if req.Font != "" {
		if f, ok := findFont(req.Font); ok {
			out.Font = f
		} else {
			warnings = append(warnings, fmt.Sprintf("Font %q is not available; keeping %s", req.Font, out.Font))
		}
	}

	colors := []struct {
		label string
		value string
		dst   *string
	}{
		{"primary color", req.PrimaryColor, &out.PrimaryColor},
		{"accent color", req.AccentColor, &out.AccentColor},
		{"text color", req.TextColor, &out.TextColor},
		{"background color", req.BackgroundColor, &out.BackgroundColor},
	}
	for _, c := range colors {
		if c.value == "" {
			continue
		}
		if hex, ok := Normalize(c.value); ok {
			*c.dst = hex
		} else {
			warnings = append(warnings, fmt.Sprintf("%q is not a color I know; keeping the current %s", c.value, c.label))
		}
	}

	if req.Layout != "" {
		if l, ok := layoutAliases[strings.ToLower(strings.TrimSpace(req.Layout))]; ok {
			out.Layout = l
		} else {
			warnings = append(warnings, fmt.Sprintf("Layout %q is not supported; use single-column, two-column or compact", req.Layout))
		}
	}
	if req.Spacing != "" {
		if s, ok := spacingAliases[strings.ToLower(strings.TrimSpace(req.Spacing))]; ok {
			out.Spacing = s
		} else {
			warnings = append(warnings, fmt.Sprintf("Spacing %q is not supported; use compact, normal or relaxed", req.Spacing))
		}
	}

	if result, err := ValidateWCAG(out.TextColor, out.BackgroundColor, LevelAA, SizeNormal); err == nil && !result.Passes {
		warnings = append(warnings, fmt.Sprintf("Text %s on %s has contrast %.2f:1, below the WCAG AA minimum of %.1f:1",
			NameFor(out.TextColor), NameFor(out.BackgroundColor), result.Ratio, result.Required))
	}
	return out, warnings
}

// mergeValid copies the valid fields of src over dst
func mergeValid(dst, src types.Theme) types.Theme {
	if _, ok := findFont(src.Font); ok {
		dst.Font = src.Font
	}
	for _, pair := range []struct{ dst, src *string }{
		{&dst.PrimaryColor, &src.PrimaryColor},
		{&dst.AccentColor, &src.AccentColor},
		{&dst.TextColor, &src.TextColor},
		{&dst.BackgroundColor, &src.BackgroundColor},
	} {
		if Validate(*pair.src) {
			*pair.dst = strings.ToLower(*pair.src)
		}
	}
	if l, ok := layoutAliases[src.Layout]; ok {
		dst.Layout = l
	}
	if s, ok := spacingAliases[src.Spacing]; ok {
		dst.Spacing = s
	}
	return dst
}
