package intent

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/jonathan/resume-editor/internal/types"
)

// sectionParser handles one part of the document. Sections are tried in a
// fixed order and the first whose keyword appears in the text wins.
type sectionParser struct {
	name    string
	keyword *regexp.Regexp
	parse   func(text string, ictx *types.IntentContext) *types.ModificationIntent
}

// RegexParser is the deterministic, dependency-free Parser
type RegexParser struct {
	sections []sectionParser
}

// NewRegexParser returns a parser with the standard section precedence:
// job title, contact, skills, summary, achievements, then experience.
func NewRegexParser() *RegexParser {
	return &RegexParser{sections: []sectionParser{
		{name: "title", keyword: titleSectionRe, parse: parseTitle},
		{name: "contact", keyword: contactSectionRe, parse: parseContact},
		{name: "skills", keyword: skillsSectionRe, parse: parseSkills},
		{name: "summary", keyword: summarySectionRe, parse: parseSummary},
		{name: "achievements", keyword: achievementSectionRe, parse: parseAchievements},
		{name: "experience", keyword: experienceSectionRe, parse: parseExperience},
	}}
}

// Parse implements Parser. It is a pure function of its inputs.
func (p *RegexParser) Parse(_ context.Context, message string, ictx *types.IntentContext) (*types.ModificationIntent, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if ictx == nil {
		ictx = &types.IntentContext{}
	}

	text := normalize(message)
	if !verbRe.MatchString(text) {
		return notModification(), nil
	}
	return p.parseText(text, ictx), nil
}

// Section returns the name of the section an instruction targets, or "" when
// no section keyword is present. Contact fields count as separate sections so
// "email and phone" edits can be split.
func (p *RegexParser) Section(text string) string {
	for _, s := range p.sections {
		if !s.keyword.MatchString(text) {
			continue
		}
		if s.name == "contact" {
			return "contact." + contactKey(s.keyword.FindString(text))
		}
		return s.name
	}
	return ""
}

func (p *RegexParser) parseText(text string, ictx *types.IntentContext) *types.ModificationIntent {
	if left, right, ok := p.splitCompound(text); ok {
		return p.parseCompound(left, right, ictx)
	}
	return p.parseSingle(text, ictx)
}

func (p *RegexParser) parseSingle(text string, ictx *types.IntentContext) *types.ModificationIntent {
	for _, s := range p.sections {
		if s.keyword.MatchString(text) {
			return s.parse(text, ictx)
		}
	}
	return bareOr(text, ambiguous())
}

var andRe = regexp.MustCompile(`(?i),?\s+and\s+(?:also\s+|then\s+)?`)

// splitCompound finds the first "and" whose two sides address different
// sections. The right side inherits the left side's verb when it has none.
func (p *RegexParser) splitCompound(text string) (string, string, bool) {
	for _, loc := range andRe.FindAllStringIndex(text, -1) {
		left := strings.TrimSpace(text[:loc[0]])
		right := strings.TrimSpace(text[loc[1]:])
		leftSection := p.Section(left)
		rightSection := p.Section(leadingWords(right, 6))
		if leftSection == "" || rightSection == "" || leftSection == rightSection {
			continue
		}
		if !leadVerbRe.MatchString(right) {
			right = firstWord(left) + " " + right
		}
		return left, right, true
	}
	return "", "", false
}

func (p *RegexParser) parseCompound(left, right string, ictx *types.IntentContext) *types.ModificationIntent {
	parts := []*types.ModificationIntent{p.parseSingle(left, ictx), p.parseText(right, ictx)}

	var warnings []string
	for _, part := range parts {
		warnings = append(warnings, part.Warnings...)
	}

	// One unclear half makes the whole request unclear
	for _, part := range parts {
		if part.RequiresClarification {
			result := *part
			result.Warnings = warnings
			return &result
		}
	}

	var primary *types.ModificationIntent
	var ops []types.Operation
	confidence := 1.0
	for _, part := range parts {
		confidence = math.Min(confidence, part.Confidence)
		if part.ShouldSkip {
			continue
		}
		if primary == nil {
			primary = part
		}
		ops = append(ops, part.Operations()...)
	}

	if primary == nil {
		result := *parts[0]
		result.Warnings = warnings
		return &result
	}

	result := *primary
	result.Modifications = ops
	result.Confidence = confidence
	result.Warnings = warnings
	return &result
}

func leadingWords(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
