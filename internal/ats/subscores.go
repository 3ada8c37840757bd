package ats

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/resume-editor/internal/document"
)

// Subscore weights. They sum to 1.
const (
	weightKeywordExact       = 0.30
	weightKeywordPhrase      = 0.10
	weightSemanticRelevance  = 0.15
	weightTitleAlignment     = 0.10
	weightMetricsPresence    = 0.10
	weightSectionComplete    = 0.10
	weightFormatParseability = 0.05
	weightRecencyFit         = 0.10
)

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return round1(v)
}

// coverage is the percentage of want found in have
func coverage(want []string, have map[string]bool) float64 {
	if len(want) == 0 {
		return 0
	}
	hits := 0
	for _, w := range want {
		if have[w] {
			hits++
		}
	}
	return 100 * float64(hits) / float64(len(want))
}

// cosine compares stemmed term-frequency vectors
func cosine(a, b []string) float64 {
	va := make(map[string]float64)
	for _, t := range a {
		va[stem(t)]++
	}
	vb := make(map[string]float64)
	for _, t := range b {
		vb[stem(t)]++
	}
	var dot, na, nb float64
	for k, x := range va {
		dot += x * vb[k]
		na += x * x
	}
	for _, y := range vb {
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return 100 * dot / (math.Sqrt(na) * math.Sqrt(nb))
}

const maxTitleTerms = 12

// titleAlignment compares the first line of the job text with every job
// title on the résumé and keeps the best overlap. A first line too long to be
// a title scores neutral.
func titleAlignment(doc any, jobText string) float64 {
	line := ""
	for _, l := range strings.Split(jobText, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	want := terms(line)
	if len(want) == 0 || len(want) > maxTitleTerms {
		return 50
	}

	var titles []string
	if m, ok := doc.(map[string]any); ok {
		for _, key := range []string{"title", "headline"} {
			if s, ok := m[key].(string); ok {
				titles = append(titles, s)
			}
		}
	}
	for _, exp := range document.Experiences(doc) {
		titles = append(titles, document.String(exp, "title"))
	}

	best := 0.0
	for _, title := range titles {
		best = math.Max(best, coverage(want, set(terms(title))))
	}
	return best
}

var metricRe = regexp.MustCompile(`\d|%|\$|€|£`)

// bullets collects achievement lines from every experience entry
func bullets(doc any) []string {
	var out []string
	for _, exp := range document.Experiences(doc) {
		m, ok := exp.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range []string{"achievements", "bullets", "highlights", "responsibilities"} {
			out = append(out, document.Strings(m[key])...)
		}
	}
	return out
}

// metricsPresence reaches 100 when half the bullets carry a number
func metricsPresence(doc any) float64 {
	lines := bullets(doc)
	if len(lines) == 0 {
		return 0
	}
	hits := 0
	for _, l := range lines {
		if metricRe.MatchString(l) {
			hits++
		}
	}
	return 100 * (float64(hits) / float64(len(lines))) / 0.5
}

// sectionKeys lists the expected sections and the keys that satisfy each
var sectionKeys = []struct {
	name string
	keys []string
}{
	{"contact", []string{"contact", "email"}},
	{"summary", []string{"summary", "profile", "objective"}},
	{"skills", []string{"skills"}},
	{"experience", []string{"experiences", "experience", "work"}},
	{"education", []string{"education", "educations"}},
}

// missingSections returns the expected sections that are absent or empty
func missingSections(doc any) []string {
	m, _ := doc.(map[string]any)
	var missing []string
	for _, s := range sectionKeys {
		found := false
		for _, key := range s.keys {
			if document.Text(m[key]) != "" {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, s.name)
		}
	}
	return missing
}

func sectionCompleteness(missing []string) float64 {
	return 100 * float64(len(sectionKeys)-len(missing)) / float64(len(sectionKeys))
}

var decorativeRe = regexp.MustCompile(`[│┃║▪▫■□★☆✓✔➤►◆●]|[\x{1F300}-\x{1FAFF}]`)

const (
	minTextLength = 200
	maxBulletLen  = 300
)

// formatParseability starts at 100 and deducts for traits that confuse
// applicant tracking parsers
func formatParseability(doc any, text string) float64 {
	score := 100.0
	if len(text) < minTextLength {
		score -= 30
	}
	if !strings.Contains(text, "@") {
		score -= 20
	}
	if decorativeRe.MatchString(text) {
		score -= 10
	}
	if strings.Contains(text, "\t") {
		score -= 5
	}
	long := 0
	for _, b := range bullets(doc) {
		if len(b) > maxBulletLen {
			long++
		}
	}
	score -= math.Min(20, float64(long)*10)
	return score
}

var presentWords = map[string]bool{"present": true, "current": true, "now": true, "today": true, "ongoing": true}

var dateLayouts = []string{"2006-01-02", "2006-01", "Jan 2006", "January 2006", "01/2006", "2006"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// recencyFit scores how recently the latest role ended: 100 for a current
// role, minus 20 per year since. Unparseable dates are neutral.
func recencyFit(doc any, now time.Time) float64 {
	experiences := document.Experiences(doc)
	if len(experiences) == 0 {
		return 0
	}
	latest := experiences[0]
	end := strings.ToLower(strings.TrimSpace(document.String(latest, "end_date")))
	if end == "" {
		end = strings.ToLower(strings.TrimSpace(document.String(latest, "endDate")))
	}
	if presentWords[end] {
		return 100
	}
	if end == "" {
		if document.String(latest, "start_date") != "" || document.String(latest, "startDate") != "" {
			return 100
		}
		return 50
	}
	t, ok := parseDate(end)
	if !ok {
		return 50
	}
	years := now.Sub(t).Hours() / (24 * 365.25)
	if years < 0 {
		return 100
	}
	return 100 - 20*years
}
