// Package ats scores a résumé document against a job description.
package ats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/resume-editor/internal/document"
	"github.com/jonathan/resume-editor/internal/types"
	"go.uber.org/zap"
)

const (
	keywordLimit        = 40
	phraseLimit         = 20
	missingKeywordLimit = 15
	keywordSuggestions  = 5
)

// Engine computes match reports. It is safe for concurrent use.
type Engine struct {
	logger *zap.Logger
	now    func() time.Time
	// primary is the full scoring path; replaced in tests to exercise the fallback
	primary func(doc any, resumeText, jobText string) *types.Report
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{logger: logger, now: time.Now}
	e.primary = e.score
	return e
}

// Score never fails. When the primary path panics it returns a zero report
// with Degraded set; the language breakdown is computed independently.
func (e *Engine) Score(doc any, jobText string) *types.Report {
	resumeText := document.Text(doc)
	languages := e.languages(resumeText, jobText)

	if strings.TrimSpace(jobText) == "" {
		report := emptyReport()
		report.Languages = languages
		return report
	}

	report := e.safePrimary(doc, resumeText, jobText)
	report.Languages = languages
	return report
}

func (e *Engine) safePrimary(doc any, resumeText, jobText string) (report *types.Report) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("ats scoring failed, returning degraded report", zap.Any("panic", r))
			report = emptyReport()
			report.Degraded = true
		}
	}()
	return e.primary(doc, resumeText, jobText)
}

func (e *Engine) languages(resumeText, jobText string) (out map[string]types.LanguageScore) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("language breakdown failed", zap.Any("panic", r))
			out = map[string]types.LanguageScore{}
		}
	}()
	return Languages(resumeText, jobText)
}

func emptyReport() *types.Report {
	return &types.Report{
		MissingKeywords: []string{},
		Recommendations: []types.Suggestion{},
		Languages:       map[string]types.LanguageScore{},
	}
}

func (e *Engine) score(doc any, resumeText, jobText string) *types.Report {
	resumeTerms := terms(resumeText)
	jobTerms := terms(jobText)
	have := set(resumeTerms)

	keywords := ranked(jobTerms, keywordLimit)
	jobPhrases := ranked(phrases(jobText), phraseLimit)
	missing := missingSections(doc)

	sub := types.SubScores{
		KeywordExact:        clamp(coverage(keywords, have)),
		SemanticRelevance:   clamp(cosine(resumeTerms, jobTerms)),
		TitleAlignment:      clamp(titleAlignment(doc, jobText)),
		MetricsPresence:     clamp(metricsPresence(doc)),
		SectionCompleteness: clamp(sectionCompleteness(missing)),
		FormatParseability:  clamp(formatParseability(doc, resumeText)),
		RecencyFit:          clamp(recencyFit(doc, e.now())),
	}
	if len(jobPhrases) > 0 {
		sub.KeywordPhrase = clamp(coverage(jobPhrases, set(phrases(resumeText))))
	} else {
		sub.KeywordPhrase = sub.KeywordExact
	}

	missingKeywords := []string{}
	for _, k := range keywords {
		if !have[k] && len(missingKeywords) < missingKeywordLimit {
			missingKeywords = append(missingKeywords, k)
		}
	}

	return &types.Report{
		Score:           Overall(sub),
		SubScores:       sub,
		MissingKeywords: missingKeywords,
		Recommendations: recommend(sub, missingKeywords, missing, len(keywords)),
	}
}

// Overall combines subscores into the 0-100 match score
func Overall(s types.SubScores) int {
	total := s.KeywordExact*weightKeywordExact +
		s.KeywordPhrase*weightKeywordPhrase +
		s.SemanticRelevance*weightSemanticRelevance +
		s.TitleAlignment*weightTitleAlignment +
		s.MetricsPresence*weightMetricsPresence +
		s.SectionCompleteness*weightSectionComplete +
		s.FormatParseability*weightFormatParseability +
		s.RecencyFit*weightRecencyFit
	return int(math.Round(clamp(total)))
}

// recommend builds suggestions ordered by estimated gain in overall score points
func recommend(sub types.SubScores, missingKeywords, missingSections []string, keywordCount int) []types.Suggestion {
	out := []types.Suggestion{}

	for i, k := range missingKeywords {
		if i == keywordSuggestions {
			break
		}
		out = append(out, types.Suggestion{
			Category:      types.CategoryKeywords,
			Text:          fmt.Sprintf("Mention %q if it reflects your experience", k),
			EstimatedGain: round1(100 * weightKeywordExact / float64(keywordCount)),
			Keyword:       k,
		})
	}
	if sub.MetricsPresence < 60 {
		out = append(out, types.Suggestion{
			Category:      types.CategoryMetrics,
			Text:          "Quantify more achievements with numbers such as percentages, counts or time saved",
			EstimatedGain: round1((100 - sub.MetricsPresence) * weightMetricsPresence),
		})
	}
	for _, s := range missingSections {
		out = append(out, types.Suggestion{
			Category:      types.CategoryStructure,
			Text:          fmt.Sprintf("Add a %s section", s),
			EstimatedGain: round1(100 / float64(len(sectionKeys)) * weightSectionComplete),
		})
	}
	if sub.FormatParseability < 80 {
		out = append(out, types.Suggestion{
			Category:      types.CategoryFormatting,
			Text:          "Use plain text bullets, include an email address and keep bullets under two lines",
			EstimatedGain: round1((100 - sub.FormatParseability) * weightFormatParseability),
		})
	}
	if sub.SemanticRelevance < 40 {
		out = append(out, types.Suggestion{
			Category:      types.CategoryContent,
			Text:          "Describe your experience using the terminology of the job description",
			EstimatedGain: round1((40 - sub.SemanticRelevance) * weightSemanticRelevance),
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].EstimatedGain > out[b].EstimatedGain
	})
	return out
}
