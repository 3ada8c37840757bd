package intent

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/resume-editor/internal/types"
)

// qualifier captures which experience entry an instruction refers to
const qualifier = `(?:(previous|prior|former|latest|most\s+recent|current|last)\s+)?`

var (
	romanNumeralRe = regexp.MustCompile(`(?i)^(?:i{1,3}|iv|v|vi{1,3}|ix|x)$`)
	emailRe        = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitRe        = regexp.MustCompile(`\d`)
)

// experienceIndex resolves a captured qualifier: "previous" is index 1 when at
// least two entries exist; everything else is the latest entry at index 0.
func experienceIndex(qual string, ictx *types.IntentContext) (int, []string) {
	switch strings.ToLower(strings.Join(strings.Fields(qual), " ")) {
	case "previous", "prior", "former":
		if ictx.ExperienceCount >= 2 {
			return 1, nil
		}
		return 0, []string{"Only one experience entry found; using the most recent one"}
	}
	return 0, nil
}

func experiencePath(i int, field string) string {
	return fmt.Sprintf("experiences[%d].%s", i, field)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// --- job title ---------------------------------------------------------------

var (
	titleSectionRe = regexp.MustCompile(`(?i)\btitle\b|^` + verbPattern + `\s+(?:my\s+|the\s+)?` + qualifier + `(?:job\s+)?(?:position|role)\s+(?:to|as)\b`)

	titleNoun = `(?:job\s+|role\s+|position\s+)?(?:title|position|role)`

	titleReplaceRe = regexp.MustCompile(`(?i)^(?:change|update|modify|set|make|replace)\s+(?:my\s+|the\s+)?` + qualifier + titleNoun + `\s+(?:to|with|as|into)\s+(.+)$`)
	titleEndRe     = regexp.MustCompile(`(?i)^(?:add|append|put|insert)\s+(.+?)\s+(?:to|at|on)\s+the\s+end\s+of\s+(?:my\s+|the\s+)?` + qualifier + titleNoun + `$`)
	titleSuffixRe  = regexp.MustCompile(`(?i)^(?:add|append)\s+(.+?)\s+as\s+(?:a\s+)?suffix(?:\s+(?:to|on)\s+(?:my\s+|the\s+)?` + qualifier + titleNoun + `)?$`)
	titleAppendRe  = regexp.MustCompile(`(?i)^append\s+(.+?)\s+to\s+(?:my\s+|the\s+)?` + qualifier + titleNoun + `$`)
	titleFrontRe   = regexp.MustCompile(`(?i)^(?:add|put|insert|prepend)\s+(.+?)\s+(?:to|at)\s+the\s+(?:front|beginning|start)\s+of\s+(?:my\s+|the\s+)?` + qualifier + titleNoun + `$`)
	titleAddRe     = regexp.MustCompile(`(?i)^(?:add|insert|prepend|put)\s+(.+?)\s+(?:to|in|into|before|on)\s+(?:my\s+|the\s+)?` + qualifier + titleNoun + `$`)
	titleStripRe   = regexp.MustCompile(`(?i)^(?:remove|delete)\s+(?:the\s+(?:word\s+)?)?(.+?)\s+from\s+(?:my\s+|the\s+)?` + qualifier + titleNoun + `$`)
	titleRemoveRe  = regexp.MustCompile(`(?i)^(?:remove|delete|clear)\s+(?:my\s+|the\s+)?` + qualifier + titleNoun + `$`)
)

func parseTitle(text string, ictx *types.IntentContext) *types.ModificationIntent {
	withIndex := func(qual string, build func(path string) *types.ModificationIntent) *types.ModificationIntent {
		i, warnings := experienceIndex(qual, ictx)
		result := build(experiencePath(i, "title"))
		result.Warnings = append(result.Warnings, warnings...)
		return result
	}

	if m := titleReplaceRe.FindStringSubmatch(text); m != nil {
		return withIndex(m[1], func(path string) *types.ModificationIntent {
			return edit(types.OpReplace, path, cleanValue(m[2], false), confidenceReplace)
		})
	}
	if m := firstMatch(text, titleEndRe, titleSuffixRe, titleAppendRe); m != nil {
		return withIndex(m[2], func(path string) *types.ModificationIntent {
			return edit(types.OpSuffix, path, " "+cleanValue(m[1], false), confidenceEdit)
		})
	}
	if m := titleFrontRe.FindStringSubmatch(text); m != nil {
		return withIndex(m[2], func(path string) *types.ModificationIntent {
			return edit(types.OpPrefix, path, cleanValue(m[1], false)+" ", confidenceEdit)
		})
	}
	if m := titleAddRe.FindStringSubmatch(text); m != nil {
		value := cleanValue(m[1], false)
		return withIndex(m[2], func(path string) *types.ModificationIntent {
			if romanNumeralRe.MatchString(value) {
				return edit(types.OpSuffix, path, " "+strings.ToUpper(value), confidenceEdit)
			}
			return edit(types.OpPrefix, path, value+" ", confidenceEdit)
		})
	}
	if m := titleStripRe.FindStringSubmatch(text); m != nil {
		word := cleanValue(m[1], false)
		i, warnings := experienceIndex(m[2], ictx)
		path := experiencePath(i, "title")
		if i >= len(ictx.ExperienceTitles) || ictx.ExperienceTitles[i] == "" {
			return clarify(fmt.Sprintf("What should your job title be without %q?", word), confidenceSection, path)
		}
		current := ictx.ExperienceTitles[i]
		stripped := removeWord(current, word)
		if stripped == current {
			result := edit(types.OpReplace, path, current, confidenceEdit)
			result.ShouldSkip = true
			result.Warnings = append(warnings, fmt.Sprintf("%q is not part of your job title", word))
			return result
		}
		result := edit(types.OpReplace, path, stripped, confidenceEdit)
		result.Warnings = warnings
		return result
	}
	if m := titleRemoveRe.FindStringSubmatch(text); m != nil {
		return withIndex(m[1], func(path string) *types.ModificationIntent {
			return edit(types.OpRemove, path, nil, confidenceRemove)
		})
	}
	return bareOr(text, clarify("What would you like your job title to be?", confidenceSection, "experiences[0].title", "experiences[1].title"))
}

func removeWord(title, word string) string {
	re, err := regexp.Compile(`(?i)\s*\b` + regexp.QuoteMeta(word) + `\b\s*`)
	if err != nil {
		return title
	}
	return strings.TrimSpace(re.ReplaceAllString(title, " "))
}

// --- contact -----------------------------------------------------------------

var (
	contactSectionRe = regexp.MustCompile(`(?i)\b(?:email|phone|mobile|cell|location|city|address)\b`)

	contactField = `(email(?:\s+address)?|phone(?:\s+number)?|mobile(?:\s+number)?|cell(?:\s+phone)?|location|city|address)`

	contactReplaceRe = regexp.MustCompile(`(?i)^(?:change|update|modify|set|make|replace)\s+(?:my\s+|the\s+)?(?:contact\s+)?` + contactField + `\s+(?:to|with|as|into)\s+(.+)$`)
	contactAddRe     = regexp.MustCompile(`(?i)^(?:add|set|include)\s+(?:my\s+|a\s+|an\s+|the\s+)?(?:contact\s+)?` + contactField + `\s*(?::|=|\bis\b|\bas\b)?\s+(.+)$`)
	contactAddAsRe   = regexp.MustCompile(`(?i)^(?:add|set|use|make)\s+(.+?)\s+(?:as|my)\s+(?:my\s+|the\s+)?` + contactField + `$`)
	contactRemoveRe  = regexp.MustCompile(`(?i)^(?:remove|delete|clear)\s+(?:my\s+|the\s+)?(?:contact\s+)?` + contactField + `$`)
)

func contactKey(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "email"):
		return "email"
	case strings.HasPrefix(lower, "phone"), strings.HasPrefix(lower, "mobile"), strings.HasPrefix(lower, "cell"):
		return "phone"
	default:
		return "location"
	}
}

func parseContact(text string, _ *types.IntentContext) *types.ModificationIntent {
	var field, value string
	if m := contactReplaceRe.FindStringSubmatch(text); m != nil {
		field, value = m[1], m[2]
	} else if m := contactAddRe.FindStringSubmatch(text); m != nil {
		field, value = m[1], m[2]
	} else if m := contactAddAsRe.FindStringSubmatch(text); m != nil {
		field, value = m[2], m[1]
	} else if m := contactRemoveRe.FindStringSubmatch(text); m != nil {
		return edit(types.OpRemove, "contact."+contactKey(m[1]), nil, confidenceRemove)
	} else {
		return bareOr(text, clarify("Which contact detail should I update, and to what?", confidenceSection,
			"contact.email", "contact.phone", "contact.location"))
	}

	key := contactKey(field)
	value = cleanValue(value, false)
	result := edit(types.OpReplace, "contact."+key, value, confidenceReplace)
	switch {
	case key == "email" && !emailRe.MatchString(value):
		result.Confidence = confidenceWeak
		result.Warnings = append(result.Warnings, fmt.Sprintf("%q does not look like an email address", value))
	case key == "phone" && len(digitRe.FindAllString(value, -1)) < 7:
		result.Confidence = confidenceWeak
		result.Warnings = append(result.Warnings, fmt.Sprintf("%q does not look like a phone number", value))
	}
	return result
}

// --- skills ------------------------------------------------------------------

var (
	skillsSectionRe = regexp.MustCompile(`(?i)\bskills?\b|\bskill\s*set\b|\btech\s+stack\b`)

	skillsNoun = `(?:(technical|soft|hard)\s+)?(?:skills?|skill\s*set|tech\s+stack)(?:\s+(?:section|list))?`

	skillsReplaceAllRe = regexp.MustCompile(`(?i)^(?:change|update|set|replace)\s+(?:my\s+|the\s+)?` + skillsNoun + `\s+(?:to|with)\s+(.+)$`)
	skillsAddToRe      = regexp.MustCompile(`(?i)^(?:add|include|insert|put|append)\s+(.+?)\s+(?:to|in|into|under|on)\s+(?:my\s+|the\s+)?` + skillsNoun + `$`)
	skillsAddListRe    = regexp.MustCompile(`(?i)^(?:add|include|insert|append)\s+(?:(technical|soft|hard)\s+)?(?:new\s+)?(?:skills?|skill\s*set)\s*:?\s+(.+)$`)
	skillsRemoveRe     = regexp.MustCompile(`(?i)^(?:remove|delete|drop)\s+(.+?)\s+from\s+(?:my\s+|the\s+)?` + skillsNoun + `$`)
	skillsSwapRe       = regexp.MustCompile(`(?i)^(?:replace|swap|change|update)\s+(.+?)\s+(?:with|to|for)\s+(.+?)(?:\s+in\s+(?:my\s+|the\s+)?` + skillsNoun + `)?$`)
)

func skillKind(explicit, skill string) string {
	switch strings.ToLower(explicit) {
	case "soft":
		return "soft"
	case "technical", "hard":
		return "technical"
	}
	if IsTechnicalSkill(skill) {
		return "technical"
	}
	return "soft"
}

func skillsPath(kind string, ictx *types.IntentContext) string {
	if ictx.FlatSkills {
		return "skills"
	}
	return "skills." + kind
}

func skillList(kind string, ictx *types.IntentContext) []string {
	if kind == "soft" && !ictx.FlatSkills {
		return ictx.SoftSkills
	}
	return ictx.TechnicalSkills
}

func parseSkills(text string, ictx *types.IntentContext) *types.ModificationIntent {
	if m := skillsReplaceAllRe.FindStringSubmatch(text); m != nil {
		skills := splitSkills(m[2])
		if len(skills) == 0 {
			return clarify("Which skills should your list contain?", confidenceSection, "skills.technical", "skills.soft")
		}
		kind := skillKind(m[1], skills[0])
		values := make([]any, len(skills))
		for i, s := range skills {
			values[i] = s
		}
		return edit(types.OpReplace, skillsPath(kind, ictx), values, confidenceReplace)
	}
	if m := skillsAddToRe.FindStringSubmatch(text); m != nil {
		return addSkills(m[1], m[2], ictx)
	}
	if m := skillsAddListRe.FindStringSubmatch(text); m != nil {
		return addSkills(m[2], m[1], ictx)
	}
	if m := skillsRemoveRe.FindStringSubmatch(text); m != nil {
		return removeSkills(m[1], m[2], ictx)
	}
	if m := skillsSwapRe.FindStringSubmatch(text); m != nil && !skillsSectionRe.MatchString(m[1]) {
		return swapSkill(cleanValue(m[1], false), cleanValue(m[2], false), m[3], ictx)
	}
	return clarify("Which skills would you like to add or remove?", confidenceSection, "skills.technical", "skills.soft")
}

func addSkills(list, explicitKind string, ictx *types.IntentContext) *types.ModificationIntent {
	skills := splitSkills(list)
	if len(skills) == 0 {
		return clarify("Which skills would you like to add?", confidenceSection, "skills.technical", "skills.soft")
	}

	var ops []types.Operation
	var warnings []string
	for _, skill := range skills {
		if indexFold(ictx.TechnicalSkills, skill) >= 0 || indexFold(ictx.SoftSkills, skill) >= 0 {
			warnings = append(warnings, fmt.Sprintf("Skill %q is already listed", skill))
			continue
		}
		ops = append(ops, types.Operation{
			Operation: types.OpAppend,
			FieldPath: skillsPath(skillKind(explicitKind, skill), ictx),
			NewValue:  skill,
		})
	}

	if len(ops) == 0 {
		result := edit(types.OpAppend, skillsPath(skillKind(explicitKind, skills[0]), ictx), skills[0], confidenceEdit)
		result.ShouldSkip = true
		result.Warnings = warnings
		return result
	}
	result := edit(ops[0].Operation, ops[0].FieldPath, ops[0].NewValue, confidenceEdit)
	if len(ops) > 1 {
		result.Modifications = ops
	}
	result.Warnings = warnings
	return result
}

func removeSkills(list, explicitKind string, ictx *types.IntentContext) *types.ModificationIntent {
	skills := splitSkills(list)
	if len(skills) == 0 {
		return clarify("Which skills would you like to remove?", confidenceSection, "skills.technical", "skills.soft")
	}

	type hit struct {
		path  string
		index int
	}
	var hits []hit
	var warnings []string
	for _, skill := range skills {
		kinds := []string{"technical", "soft"}
		if explicitKind != "" {
			kinds = []string{skillKind(explicitKind, skill)}
		}
		found := false
		for _, kind := range kinds {
			if i := indexFold(skillList(kind, ictx), skill); i >= 0 {
				hits = append(hits, hit{path: skillsPath(kind, ictx), index: i})
				found = true
				break
			}
		}
		if !found {
			warnings = append(warnings, fmt.Sprintf("Skill %q is not in your skills", skill))
		}
	}

	if len(hits) == 0 {
		return &types.ModificationIntent{
			IsModification: true,
			Operation:      types.OpRemove,
			Confidence:     confidenceRemove,
			ShouldSkip:     true,
			Warnings:       warnings,
			Source:         sourceRegex,
		}
	}

	// Remove from the back so earlier indices stay valid
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].path != hits[b].path {
			return hits[a].path < hits[b].path
		}
		return hits[a].index > hits[b].index
	})
	ops := make([]types.Operation, len(hits))
	for i, h := range hits {
		ops[i] = types.Operation{Operation: types.OpRemove, FieldPath: h.path + "[" + strconv.Itoa(h.index) + "]"}
	}
	result := edit(types.OpRemove, ops[0].FieldPath, nil, confidenceRemove)
	if len(ops) > 1 {
		result.Modifications = ops
	}
	result.Warnings = warnings
	return result
}

func swapSkill(old, replacement, explicitKind string, ictx *types.IntentContext) *types.ModificationIntent {
	for _, kind := range []string{"technical", "soft"} {
		if explicitKind != "" && skillKind(explicitKind, old) != kind {
			continue
		}
		if i := indexFold(skillList(kind, ictx), old); i >= 0 {
			path := fmt.Sprintf("%s[%d]", skillsPath(kind, ictx), i)
			return edit(types.OpReplace, path, replacement, confidenceReplace)
		}
	}
	return clarify(fmt.Sprintf("I couldn't find %q in your skills. Should I add %q instead?", old, replacement),
		confidenceSection, "skills.technical", "skills.soft")
}

// --- summary -----------------------------------------------------------------

var (
	summarySectionRe = regexp.MustCompile(`(?i)\b(?:summary|profile|objective|about\s+me|bio)\b`)

	summaryNoun = `(?:professional\s+)?(?:summary|profile|objective|about\s+me(?:\s+section)?|bio)`

	summaryReplaceRe = regexp.MustCompile(`(?i)^(?:change|update|replace|rewrite|set|make|modify)\s+(?:my\s+|the\s+)?` + summaryNoun + `\s+(?:to|with|as|into)\s+(.+)$`)
	summaryEndRe     = regexp.MustCompile(`(?i)^(?:add|append|put|insert)\s+(.+?)\s+(?:to|at)\s+the\s+end\s+of\s+(?:my\s+|the\s+)?` + summaryNoun + `$`)
	summaryAppendRe  = regexp.MustCompile(`(?i)^append\s+(.+?)\s+to\s+(?:my\s+|the\s+)?` + summaryNoun + `$`)
	summaryFrontRe   = regexp.MustCompile(`(?i)^(?:add|put|insert|prepend)\s+(.+?)\s+(?:to|at)\s+the\s+(?:front|beginning|start)\s+of\s+(?:my\s+|the\s+)?` + summaryNoun + `$`)
	summaryAddRe     = regexp.MustCompile(`(?i)^(?:add|insert|prepend|include|put)\s+(.+?)\s+(?:to|in|into|on)\s+(?:my\s+|the\s+)?` + summaryNoun + `$`)
	summaryRemoveRe  = regexp.MustCompile(`(?i)^(?:remove|delete|clear)\s+(?:my\s+|the\s+)?` + summaryNoun + `$`)
)

func parseSummary(text string, _ *types.IntentContext) *types.ModificationIntent {
	if m := summaryReplaceRe.FindStringSubmatch(text); m != nil {
		return edit(types.OpReplace, "summary", cleanValue(m[1], true), confidenceReplace)
	}
	if m := firstMatch(text, summaryEndRe, summaryAppendRe); m != nil {
		return edit(types.OpSuffix, "summary", " "+cleanValue(m[1], true), confidenceEdit)
	}
	if m := firstMatch(text, summaryFrontRe, summaryAddRe); m != nil {
		return edit(types.OpPrefix, "summary", cleanValue(m[1], true)+" ", confidenceEdit)
	}
	if summaryRemoveRe.MatchString(text) {
		return edit(types.OpRemove, "summary", nil, confidenceRemove)
	}
	return bareOr(text, clarify("What should your summary say?", confidenceSection, "summary"))
}

// --- achievements ------------------------------------------------------------

var (
	achievementSectionRe = regexp.MustCompile(`(?i)\b(?:achievements?|accomplishments?|bullets?(?:\s+points?)?)\b`)

	achievementNoun = `(?:achievements?|accomplishments?|bullet(?:\s+points?)?|bullets)`
	jobNoun         = `(?:job|role|position|experience)`
	jobRef          = `(?:\s+(?:to|for|in|under|at|on)\s+(?:my\s+|the\s+)?` + qualifier + jobNoun + `(?:'s)?(?:\s+` + achievementNoun + `)?)?`
	ordinal         = `(?:(first|second|third|fourth|fifth|last|\d+(?:st|nd|rd|th)?)\s+)?`

	achievementLabeledRe = regexp.MustCompile(`(?i)^(?:add|include|insert|append)\s+(?:an?\s+|another\s+)?(?:new\s+)?` + achievementNoun + `\s*[:\-]?\s+(.+?)` + jobRef + `$`)
	achievementAddToRe   = regexp.MustCompile(`(?i)^(?:add|include|insert|append)\s+(.+?)\s+(?:to|in|into|under|as)\s+(?:my\s+|the\s+|an?\s+)?` + qualifier + `(?:` + jobNoun + `(?:'s)?\s+)?` + achievementNoun + jobRef + `$`)
	achievementReplaceRe = regexp.MustCompile(`(?i)^(?:change|update|replace|rewrite|modify)\s+(?:my\s+|the\s+)?` + ordinal + achievementNoun + `(?:\s+#?(\d+))?` + jobRef + `\s+(?:to|with)\s+(.+)$`)
	achievementRemoveRe  = regexp.MustCompile(`(?i)^(?:remove|delete|drop)\s+(?:my\s+|the\s+)?` + ordinal + achievementNoun + `(?:\s+#?(\d+))?` + jobRef + `$`)
)

var ordinalWords = map[string]int{"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5}

// achievementSlot converts "second", "2nd" or "#2" into a path index segment
func achievementSlot(word, number string) (string, bool) {
	word = strings.ToLower(word)
	if word == "last" {
		return "[-1]", true
	}
	if n, ok := ordinalWords[word]; ok {
		return "[" + strconv.Itoa(n-1) + "]", true
	}
	raw := firstNonEmpty(number, strings.TrimRight(word, "stndrh"))
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return "", false
	}
	return "[" + strconv.Itoa(n-1) + "]", true
}

func parseAchievements(text string, ictx *types.IntentContext) *types.ModificationIntent {
	appendTo := func(value, qual string) *types.ModificationIntent {
		i, warnings := experienceIndex(qual, ictx)
		result := edit(types.OpAppend, experiencePath(i, "achievements"), cleanValue(value, true), confidenceEdit)
		result.Warnings = warnings
		return result
	}

	if m := achievementReplaceRe.FindStringSubmatch(text); m != nil {
		slot, ok := achievementSlot(m[1], m[2])
		if !ok {
			return clarify("Which achievement should I change? Tell me its number, e.g. \"change achievement 2 to ...\".", confidenceSection, "experiences[0].achievements")
		}
		i, warnings := experienceIndex(m[3], ictx)
		result := edit(types.OpReplace, experiencePath(i, "achievements")+slot, cleanValue(m[4], true), confidenceReplace)
		result.Warnings = warnings
		return result
	}
	if m := achievementRemoveRe.FindStringSubmatch(text); m != nil {
		slot, ok := achievementSlot(m[1], m[2])
		if !ok {
			return clarify("Which achievement should I remove?", confidenceSection, "experiences[0].achievements")
		}
		i, warnings := experienceIndex(m[3], ictx)
		result := edit(types.OpRemove, experiencePath(i, "achievements")+slot, nil, confidenceRemove)
		result.Warnings = warnings
		return result
	}
	if m := achievementLabeledRe.FindStringSubmatch(text); m != nil {
		return appendTo(m[1], m[2])
	}
	if m := achievementAddToRe.FindStringSubmatch(text); m != nil {
		return appendTo(m[1], firstNonEmpty(m[2], m[3]))
	}
	return bareOr(text, clarify("What achievement would you like to add, and to which job?", confidenceSection,
		"experiences[0].achievements", "experiences[1].achievements"))
}

// --- experience fallback -----------------------------------------------------

var (
	experienceSectionRe = regexp.MustCompile(`(?i)\b(?:experience|job|role|position|company|employer|work)\b`)

	experienceField = `(company(?:\s+name)?|employer|start\s+date|end\s+date|description|responsibilities)`

	experienceReplaceRe = regexp.MustCompile(`(?i)^(?:change|update|modify|set|make|replace)\s+(?:my\s+|the\s+)?` + qualifier + `(?:` + jobNoun + `(?:'s)?\s+)?` + experienceField + `\s+(?:to|with|as)\s+(.+)$`)
	experienceDescRe    = regexp.MustCompile(`(?i)^(?:add|append|insert)\s+(.+?)\s+(?:to|in|into)\s+(the\s+end\s+of\s+)?(?:my\s+|the\s+)?` + qualifier + jobNoun + `(?:'s)?\s+description$`)
	experienceRemoveRe  = regexp.MustCompile(`(?i)^(?:remove|delete)\s+(?:my\s+|the\s+)?` + qualifier + jobNoun + `(?:\s+entry)?$`)
)

func experienceKey(raw string) string {
	lower := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	switch {
	case strings.HasPrefix(lower, "company"), lower == "employer":
		return "company"
	case lower == "start date":
		return "start_date"
	case lower == "end date":
		return "end_date"
	default:
		return "description"
	}
}

func parseExperience(text string, ictx *types.IntentContext) *types.ModificationIntent {
	if m := experienceReplaceRe.FindStringSubmatch(text); m != nil {
		i, warnings := experienceIndex(m[1], ictx)
		result := edit(types.OpReplace, experiencePath(i, experienceKey(m[2])), cleanValue(m[3], true), confidenceReplace)
		result.Warnings = warnings
		return result
	}
	if m := experienceDescRe.FindStringSubmatch(text); m != nil {
		i, warnings := experienceIndex(m[3], ictx)
		value := cleanValue(m[1], true)
		result := edit(types.OpPrefix, experiencePath(i, "description"), value+" ", confidenceEdit)
		if m[2] != "" {
			result = edit(types.OpSuffix, experiencePath(i, "description"), " "+value, confidenceEdit)
		}
		result.Warnings = warnings
		return result
	}
	if m := experienceRemoveRe.FindStringSubmatch(text); m != nil {
		i, warnings := experienceIndex(m[1], ictx)
		result := edit(types.OpRemove, fmt.Sprintf("experiences[%d]", i), nil, 0.85)
		result.Warnings = warnings
		return result
	}
	return bareOr(text, clarify("Which part of that job should I change: title, company, dates, description or achievements?",
		confidenceSection, "experiences[0].title", "experiences[0].company", "experiences[0].description", "experiences[0].achievements"))
}

// --- shared ------------------------------------------------------------------

var bareAddRe = regexp.MustCompile(`(?i)^add\s+(.+)$`)

// bareOr turns "add X" without a destination into a clarification about where X goes
func bareOr(text string, fallback *types.ModificationIntent) *types.ModificationIntent {
	if m := bareAddRe.FindStringSubmatch(text); m != nil && !strings.Contains(strings.ToLower(m[1]), " to ") {
		return clarify(fmt.Sprintf("Where should I add %q?", cleanValue(m[1], true)), confidenceBareAdd, fallback.SuggestedFields...)
	}
	return fallback
}

func firstMatch(text string, patterns ...*regexp.Regexp) []string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m
		}
	}
	return nil
}
