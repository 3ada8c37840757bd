package theme

import (
	"regexp"
	"strings"
)

// Color targets
const (
	TargetBackground = "background"
	TargetText       = "text"
	TargetHeading    = "heading"
	TargetAccent     = "accent"
	TargetPrimary    = "primary"
	TargetLink       = "link"
	TargetBorder     = "border"
)

// ColorRequest is a parsed "make X color Y" instruction
type ColorRequest struct {
	Target string `json:"target"`
	Color  string `json:"color"`
	Name   string `json:"name"`
}

var targetPatterns = []struct {
	target string
	re     *regexp.Regexp
}{
	{TargetBackground, regexp.MustCompile(`(?i)\b(?:background|bg|page\s+colou?r)\b`)},
	{TargetHeading, regexp.MustCompile(`(?i)\b(?:headings?|headers?|section\s+titles?|titles?|name)\b`)},
	{TargetText, regexp.MustCompile(`(?i)\b(?:text|font\s+colou?r|body)\b`)},
	{TargetAccent, regexp.MustCompile(`(?i)\b(?:accents?|highlights?)\b`)},
	{TargetPrimary, regexp.MustCompile(`(?i)\b(?:primary|main\s+colou?r|theme\s+colou?r|brand\s+colou?r)\b`)},
	{TargetLink, regexp.MustCompile(`(?i)\blinks?\b`)},
	{TargetBorder, regexp.MustCompile(`(?i)\b(?:borders?|dividers?|rules?|lines?)\b`)},
}

// ParseColorRequest extracts the color and the element it applies to. The
// earliest mentioned element wins; with no element the color is the primary
// color. The second result is false when no color is mentioned.
func ParseColorRequest(text string) (ColorRequest, bool) {
	hex, name, ok := findColor(text)
	if !ok {
		return ColorRequest{}, false
	}
	target, at := TargetPrimary, -1
	for _, p := range targetPatterns {
		loc := p.re.FindStringIndex(text)
		if loc != nil && (at < 0 || loc[0] < at) {
			target, at = p.target, loc[0]
		}
	}
	return ColorRequest{Target: target, Color: hex, Name: name}, true
}

var (
	clauseRe   = regexp.MustCompile(`(?i)\s*(?:[,;]|\band\b|\bthen\b)\s*`)
	fontRe     = regexp.MustCompile(`(?i)\bfont(?:\s+family)?\s*(?:to|:|=|as)\s*["']?([A-Za-z][A-Za-z0-9 ]*?)["']?\s*$`)
	useFontRe  = regexp.MustCompile(`(?i)\b(?:use|in)\s+(?:the\s+)?["']?([A-Za-z][A-Za-z0-9 ]*?)["']?\s+font\b`)
	twoColRe   = regexp.MustCompile(`(?i)\b(?:two|2)[\s-]?col(?:umn)?s?\b`)
	oneColRe   = regexp.MustCompile(`(?i)\b(?:single|one|1)[\s-]?col(?:umn)?s?\b`)
	compactRe  = regexp.MustCompile(`(?i)\bcompact\s+(?:layout|design|template)\b`)
	spacingRe  = regexp.MustCompile(`(?i)\b(?:spacing|spaced|whitespace|white\s+space|padding|margins?)\b`)
	relaxedRe  = regexp.MustCompile(`(?i)\b(?:relaxed|spacious|airy|loose|more|wider|generous)\b`)
	tightRe    = regexp.MustCompile(`(?i)\b(?:tight|tighter|compact|condensed|dense|less|narrower)\b`)
	normalRe   = regexp.MustCompile(`(?i)\b(?:normal|default|standard|regular)\b`)
	fontWordRe = regexp.MustCompile(`(?i)\bfont\b`)
)

// ParseDirectives reads font, color, layout and spacing directives from a
// command such as "use Lato font, navy headings and a two-column layout".
func ParseDirectives(text string) Request {
	var req Request
	for _, clause := range clauseRe.Split(text, -1) {
		if clause == "" {
			continue
		}
		if m := fontRe.FindStringSubmatch(clause); m != nil {
			req.Font = strings.TrimSpace(m[1])
		} else if m := useFontRe.FindStringSubmatch(clause); m != nil {
			req.Font = strings.TrimSpace(m[1])
		} else if fontWordRe.MatchString(clause) {
			if f, ok := findFont(clause); ok {
				req.Font = f
			}
		}

		if spacingRe.MatchString(clause) {
			switch {
			case tightRe.MatchString(clause):
				req.Spacing = "compact"
			case relaxedRe.MatchString(clause):
				req.Spacing = "relaxed"
			case normalRe.MatchString(clause):
				req.Spacing = "normal"
			}
		}

		if c, ok := ParseColorRequest(clause); ok && !fontRe.MatchString(clause) {
			switch c.Target {
			case TargetBackground:
				req.BackgroundColor = c.Color
			case TargetText:
				req.TextColor = c.Color
			case TargetAccent, TargetLink, TargetBorder:
				req.AccentColor = c.Color
			default:
				req.PrimaryColor = c.Color
			}
		}
	}

	switch {
	case twoColRe.MatchString(text):
		req.Layout = "two-column"
	case oneColRe.MatchString(text):
		req.Layout = "single-column"
	case compactRe.MatchString(text):
		req.Layout = "compact"
	}
	return req
}
