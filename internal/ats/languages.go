package ats

import (
	"math"
	"regexp"
	"strings"

	"github.com/jonathan/resume-editor/internal/types"
)

// Language buckets
const (
	LangHebrew = "hebrew"
	LangArabic = "arabic"
	LangLatin  = "latin"
	LangOther  = "other"
)

var (
	hebrewRe = regexp.MustCompile(`\p{Hebrew}`)
	arabicRe = regexp.MustCompile(`\p{Arabic}`)
	latinRe  = regexp.MustCompile(`^[\p{Latin}\p{N}+#.]+$`)
)

// Bucket assigns a term to a script bucket
func Bucket(term string) string {
	switch {
	case hebrewRe.MatchString(term):
		return LangHebrew
	case arabicRe.MatchString(term):
		return LangArabic
	case latinRe.MatchString(term):
		return LangLatin
	default:
		return LangOther
	}
}

// Languages computes per-bucket keyword overlap. Every script present in
// either text gets an entry; the score is the share of unique job terms in
// that bucket that also occur in the résumé, as a percentage.
func Languages(resumeText, jobText string) map[string]types.LanguageScore {
	resumeTerms := set(terms(resumeText))

	jobByBucket := make(map[string][]string)
	seen := make(map[string]bool)
	for _, t := range terms(jobText) {
		if seen[t] {
			continue
		}
		seen[t] = true
		b := Bucket(t)
		jobByBucket[b] = append(jobByBucket[b], t)
	}

	// Presence is decided on raw tokens so scripts whose words are all
	// dropped as terms, such as single letters, still get a bucket.
	out := make(map[string]types.LanguageScore)
	for _, text := range []string{resumeText, jobText} {
		for _, raw := range tokenRe.FindAllString(text, -1) {
			if isNumber(raw) {
				continue
			}
			out[Bucket(strings.ToLower(raw))] = types.LanguageScore{Gaps: []string{}}
		}
	}
	for b, jobTerms := range jobByBucket {
		gaps := []string{}
		hits := 0
		for _, t := range jobTerms {
			if resumeTerms[t] {
				hits++
			} else {
				gaps = append(gaps, t)
			}
		}
		out[b] = types.LanguageScore{Score: round1(100 * float64(hits) / float64(len(jobTerms))), Gaps: gaps}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
