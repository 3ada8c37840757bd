package theme

import (
	"regexp"
	"strings"
)

// claimPatterns match statements of fact that must come from the user:
// metrics, money, tenure and credentials
var claimPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:%|percent\b|x\b|k\b|million\b|billion\b)`),
	regexp.MustCompile(`[$€£]\s?\d[\d,.]*\s*[kKmMbB]?`),
	regexp.MustCompile(`(?i)\b\d+\+?\s+(?:years?|months?|people|engineers|developers|clients|customers|users|reports)\b`),
	regexp.MustCompile(`(?i)\b(?:award(?:ed)?|certified|certification|patent(?:ed)?|published|promoted|ph\.?d|master'?s|bachelor'?s)\b`),
}

// ClaimsIn returns the factual claims found in text, in order, without duplicates
func ClaimsIn(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, re := range claimPatterns {
		for _, m := range re.FindAllString(text, -1) {
			key := strings.ToLower(strings.TrimSpace(m))
			if !seen[key] {
				seen[key] = true
				out = append(out, strings.TrimSpace(m))
			}
		}
	}
	return out
}

// Unsupported returns the claims in generated that none of sources contains
func Unsupported(generated string, sources ...string) []string {
	corpus := strings.ToLower(strings.Join(sources, "\n"))
	var out []string
	for _, claim := range ClaimsIn(generated) {
		if !strings.Contains(corpus, strings.ToLower(claim)) {
			out = append(out, claim)
		}
	}
	return out
}
