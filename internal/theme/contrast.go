package theme

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WCAG levels and text sizes
const (
	LevelAA    = "AA"
	LevelAAA   = "AAA"
	SizeNormal = "normal"
	SizeLarge  = "large"
)

// ContrastResult is the outcome of a WCAG 2.x contrast check
type ContrastResult struct {
	Foreground string  `json:"foreground"`
	Background string  `json:"background"`
	Ratio      float64 `json:"ratio"`
	Required   float64 `json:"required"`
	Level      string  `json:"level"`
	Size       string  `json:"size"`
	Passes     bool    `json:"passes"`
}

var requiredRatios = map[string]map[string]float64{
	LevelAA:  {SizeNormal: 4.5, SizeLarge: 3},
	LevelAAA: {SizeNormal: 7, SizeLarge: 4.5},
}

// luminance is the relative luminance of a #rrggbb color
func luminance(hex string) float64 {
	channel := func(i int) float64 {
		v, _ := strconv.ParseUint(hex[i:i+2], 16, 8)
		c := float64(v) / 255
		if c <= 0.03928 {
			return c / 12.92
		}
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return 0.2126*channel(1) + 0.7152*channel(3) + 0.0722*channel(5)
}

// ContrastRatio returns the WCAG contrast ratio of two colors, rounded to two decimals
func ContrastRatio(fg, bg string) (float64, error) {
	fgHex, ok := Normalize(fg)
	if !ok {
		return 0, &ColorError{Value: fg, Message: "not a color name or hex value"}
	}
	bgHex, ok := Normalize(bg)
	if !ok {
		return 0, &ColorError{Value: bg, Message: "not a color name or hex value"}
	}
	l1, l2 := luminance(fgHex), luminance(bgHex)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return math.Round((l1+0.05)/(l2+0.05)*100) / 100, nil
}

// ValidateWCAG checks fg on bg against a WCAG level (AA or AAA) for normal
// or large text. Empty level and size default to AA and normal.
func ValidateWCAG(fg, bg, level, size string) (ContrastResult, error) {
	level = strings.ToUpper(strings.TrimSpace(level))
	if level == "" {
		level = LevelAA
	}
	size = strings.ToLower(strings.TrimSpace(size))
	if size == "" {
		size = SizeNormal
	}
	ratios, ok := requiredRatios[level]
	if !ok {
		return ContrastResult{}, fmt.Errorf("unknown WCAG level %q", level)
	}
	required, ok := ratios[size]
	if !ok {
		return ContrastResult{}, fmt.Errorf("unknown text size %q", size)
	}

	ratio, err := ContrastRatio(fg, bg)
	if err != nil {
		return ContrastResult{}, err
	}
	fgHex, _ := Normalize(fg)
	bgHex, _ := Normalize(bg)
	return ContrastResult{
		Foreground: fgHex,
		Background: bgHex,
		Ratio:      ratio,
		Required:   required,
		Level:      level,
		Size:       size,
		Passes:     ratio >= required,
	}, nil
}
