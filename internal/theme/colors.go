// Package theme resolves visual customization requests: named colors,
// contrast checks, fonts, layout and spacing.
package theme

import (
	"regexp"
	"sort"
	"strings"
)

// namedColors maps natural-language color names to 6-digit hex values
var namedColors = map[string]string{
	"black":        "#000000",
	"white":        "#ffffff",
	"navy":         "#1e3a8a",
	"navy blue":    "#1e3a8a",
	"dark navy":    "#172554",
	"blue":         "#2563eb",
	"light blue":   "#93c5fd",
	"dark blue":    "#1e40af",
	"sky blue":     "#0ea5e9",
	"royal blue":   "#1d4ed8",
	"teal":         "#0d9488",
	"dark teal":    "#115e59",
	"cyan":         "#06b6d4",
	"green":        "#16a34a",
	"dark green":   "#166534",
	"forest green": "#14532d",
	"light green":  "#86efac",
	"emerald":      "#059669",
	"olive":        "#4d7c0f",
	"red":          "#dc2626",
	"dark red":     "#991b1b",
	"crimson":      "#be123c",
	"maroon":       "#7f1d1d",
	"burgundy":     "#881337",
	"orange":       "#ea580c",
	"amber":        "#d97706",
	"yellow":       "#eab308",
	"gold":         "#ca8a04",
	"purple":       "#7c3aed",
	"dark purple":  "#581c87",
	"violet":       "#8b5cf6",
	"indigo":       "#4f46e5",
	"pink":         "#db2777",
	"magenta":      "#c026d3",
	"brown":        "#78350f",
	"gray":         "#6b7280",
	"grey":         "#6b7280",
	"light gray":   "#e5e7eb",
	"light grey":   "#e5e7eb",
	"dark gray":    "#374151",
	"dark grey":    "#374151",
	"charcoal":     "#1f2937",
	"slate":        "#475569",
	"dark slate":   "#1e293b",
	"silver":       "#cbd5e1",
	"beige":        "#f5f5dc",
	"cream":        "#fffdd0",
	"ivory":        "#fffff0",
	"off white":    "#fafaf9",
}

// canonicalNames picks the name NameFor reports when several names share a hex
var canonicalNames = map[string]string{
	"#1e3a8a": "navy",
	"#6b7280": "gray",
	"#e5e7eb": "light gray",
	"#374151": "dark gray",
}

var (
	hexRe      = regexp.MustCompile(`^#?([0-9a-fA-F]{6}|[0-9a-fA-F]{3})$`)
	punctRe    = regexp.MustCompile(`[.,;:!?"'()\-]+`)
	colorNames []string // longest first so "dark navy" wins over "navy"
)

func init() {
	for name := range namedColors {
		colorNames = append(colorNames, name)
	}
	sort.Slice(colorNames, func(a, b int) bool {
		if len(colorNames[a]) != len(colorNames[b]) {
			return len(colorNames[a]) > len(colorNames[b])
		}
		return colorNames[a] < colorNames[b]
	})
}

// Normalize converts a color name or hex string into lowercase #rrggbb.
// The second result is false when the input is neither.
func Normalize(value string) (string, bool) {
	v := strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(value, "-", " ")), " "))
	if hex, ok := namedColors[v]; ok {
		return hex, true
	}
	m := hexRe.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return "", false
	}
	digits := strings.ToLower(m[1])
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	return "#" + digits, true
}

// Validate reports whether value is a 6-digit hex color with leading #
func Validate(value string) bool {
	return len(value) == 7 && value[0] == '#' && hexRe.MatchString(value)
}

// NameFor returns the dictionary name for hex, or hex itself when unnamed
func NameFor(hex string) string {
	normalized, ok := Normalize(hex)
	if !ok {
		return hex
	}
	if name, ok := canonicalNames[normalized]; ok {
		return name
	}
	for _, name := range colorNames {
		if namedColors[name] == normalized {
			return name
		}
	}
	return normalized
}

// findColor returns the first color mentioned in text as (hex, name)
func findColor(text string) (string, string, bool) {
	for _, field := range strings.Fields(text) {
		field = strings.Trim(field, ".,;:!?\"'()")
		if strings.HasPrefix(field, "#") {
			if hex, ok := Normalize(field); ok {
				return hex, NameFor(hex), true
			}
		}
	}
	lower := " " + strings.Join(strings.Fields(strings.ToLower(punctRe.ReplaceAllString(text, " "))), " ") + " "
	best, bestAt := "", -1
	for _, name := range colorNames {
		at := strings.Index(lower, " "+name+" ")
		if at >= 0 && (bestAt < 0 || at < bestAt || (at == bestAt && len(name) > len(best))) {
			best, bestAt = name, at
		}
	}
	if best == "" {
		return "", "", false
	}
	return namedColors[best], best, true
}
