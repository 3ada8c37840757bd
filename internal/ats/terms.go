package ats

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	tokenRe       = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{M}\p{N}+#.]*`)
	phraseBreakRe = regexp.MustCompile(`[,;:!?()\[\]|•·\n]|\.\s|\.$`)
)

// termAliases maps common spellings of a technology to one canonical term
var termAliases = map[string]string{
	"golang":   "go",
	"js":       "javascript",
	"ts":       "typescript",
	"k8s":      "kubernetes",
	"reactjs":  "react",
	"react.js": "react",
	"vuejs":    "vue",
	"vue.js":   "vue",
	"nodejs":   "node.js",
	"node":     "node.js",
	"postgres": "postgresql",
	"psql":     "postgresql",
	"py":       "python",
}

// shortTerms are single-letter languages kept by the tokenizer
var shortTerms = map[string]bool{"c": true, "r": true}

var stopwords = toSet(`a about above after all also am an and any are as at be been before being
below between both but by can could did do does doing down during each few for from further had
has have having he her here hers him his how i if in into is it its itself just me more most my
no nor not of off on once only or other our ours out over own same she should so some such than
that the their them then there these they this those through to too under until up very was we
were what when where which while who whom why will with would you your yours
ability able across along based best etc excellent experience good great help ideal including
join looking must new non one our per plus preferred required requirements responsibilities role
skills strong team using well within work working years year`)

func toSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

// normalizeTerm lowercases, strips sentence punctuation and maps aliases.
// Stopwords, bare numbers and single letters return "".
func normalizeTerm(raw string) string {
	t := strings.TrimRight(strings.ToLower(raw), ".")
	if alias, ok := termAliases[t]; ok {
		return alias
	}
	if t == "" || stopwords[t] || isNumber(t) {
		return ""
	}
	if utf8.RuneCountInString(t) < 2 && !shortTerms[t] {
		return ""
	}
	return t
}

func isNumber(t string) bool {
	for _, r := range t {
		if !unicode.IsDigit(r) && r != '.' && r != '+' && r != '%' {
			return false
		}
	}
	return true
}

// terms returns the content words of text in order of appearance
func terms(text string) []string {
	var out []string
	for _, raw := range tokenRe.FindAllString(text, -1) {
		if t := normalizeTerm(raw); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// phrases returns adjacent content-word pairs. Punctuation and stopwords break a phrase.
func phrases(text string) []string {
	var out []string
	for _, chunk := range phraseBreakRe.Split(text, -1) {
		prev := ""
		for _, raw := range tokenRe.FindAllString(chunk, -1) {
			t := normalizeTerm(raw)
			if t != "" && prev != "" {
				out = append(out, prev+" "+t)
			}
			prev = t
		}
	}
	return out
}

// ranked returns unique items ordered by frequency, ties kept in order of
// first appearance, truncated to limit
func ranked(items []string, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		if counts[item] == 0 {
			order = append(order, item)
		}
		counts[item]++
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}

func set(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		out[item] = true
	}
	return out
}

var stemSuffixes = []string{"ations", "ation", "ments", "ment", "ings", "ing", "ies", "ed", "es", "ly", "s"}

// stem is a crude suffix stripper used only for the semantic subscore
func stem(t string) string {
	for _, suffix := range stemSuffixes {
		if strings.HasSuffix(t, suffix) && utf8.RuneCountInString(t)-len(suffix) >= 3 {
			return strings.TrimSuffix(t, suffix)
		}
	}
	return t
}
