package intent

import (
	"context"
	"testing"

	"github.com/jonathan/resume-editor/internal/document"
	"github.com/jonathan/resume-editor/internal/modify"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, message string, ictx *types.IntentContext) *types.ModificationIntent {
	t.Helper()
	result, err := NewRegexParser().Parse(context.Background(), message, ictx)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestRegexParser_EmptyMessage(t *testing.T) {
	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := NewRegexParser().Parse(context.Background(), msg, nil)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
}

func TestRegexParser_NotModification(t *testing.T) {
	for _, msg := range []string{
		"what is my score?",
		"how does my resume look",
		"thanks!",
	} {
		t.Run(msg, func(t *testing.T) {
			result := parse(t, msg, nil)
			assert.False(t, result.IsModification)
			assert.Empty(t, result.FieldPath)
		})
	}
}

func TestRegexParser_PrefixJobTitleEndToEnd(t *testing.T) {
	doc, err := document.Decode([]byte(`{"experience":[{"title":"Software Engineer"}]}`))
	require.NoError(t, err)

	result := parse(t, "add Senior to my job title", document.Context(doc))
	assert.True(t, result.IsModification)
	assert.False(t, result.RequiresClarification)
	assert.Equal(t, types.OpPrefix, result.Operation)
	assert.Equal(t, "experiences[0].title", result.FieldPath)
	assert.Equal(t, "Senior ", result.NewValue)

	updated, err := modify.ApplyMany(doc, result.Operations())
	require.NoError(t, err)
	exp := updated.(map[string]any)["experience"].([]any)[0].(map[string]any)
	assert.Equal(t, "Senior Software Engineer", exp["title"])
}

func TestRegexParser_ReplaceEmail(t *testing.T) {
	result := parse(t, "change email to a@b.com", nil)
	assert.Equal(t, types.OpReplace, result.Operation)
	assert.Equal(t, "contact.email", result.FieldPath)
	assert.Equal(t, "a@b.com", result.NewValue)
	assert.Equal(t, 0.95, result.Confidence)
	assert.Empty(t, result.Warnings)
}

func TestRegexParser_Sections(t *testing.T) {
	ictx := &types.IntentContext{
		ExperienceCount:  2,
		ExperienceTitles: []string{"Senior Software Engineer", "Engineer"},
		TechnicalSkills:  []string{"Go", "SQL"},
		SoftSkills:       []string{"Mentoring"},
	}

	tests := []struct {
		name    string
		message string
		op      types.OperationType
		path    string
		value   any
	}{
		{"title replace", "change my job title to Staff Engineer", types.OpReplace, "experiences[0].title", "Staff Engineer"},
		{"title previous", "update my previous job title to Platform Engineer", types.OpReplace, "experiences[1].title", "Platform Engineer"},
		{"title end cue", "add (Remote) to the end of my title", types.OpSuffix, "experiences[0].title", " (Remote)"},
		{"title roman numeral", "add II to my job title", types.OpSuffix, "experiences[0].title", " II"},
		{"title front", "add Lead to the front of my title", types.OpPrefix, "experiences[0].title", "Lead "},
		{"title strip word", "remove the word Senior from my title", types.OpReplace, "experiences[0].title", "Software Engineer"},
		{"phone replace", "update my phone number to +1 555 123 4567", types.OpReplace, "contact.phone", "+1 555 123 4567"},
		{"location add", "add my location: Berlin, Germany", types.OpReplace, "contact.location", "Berlin, Germany"},
		{"email remove", "remove my email", types.OpRemove, "contact.email", nil},
		{"skill add technical", "add Rust to my skills", types.OpAppend, "skills.technical", "Rust"},
		{"skill add soft", "add public speaking to my skills", types.OpAppend, "skills.soft", "public speaking"},
		{"skill remove", "remove SQL from my skills", types.OpRemove, "skills.technical[1]", nil},
		{"skill swap", "replace SQL with PostgreSQL in my skills", types.OpReplace, "skills.technical[1]", "PostgreSQL"},
		{"summary replace", "change my summary to Backend engineer.", types.OpReplace, "summary", "Backend engineer."},
		{"summary end", "add Open to relocation. to the end of my summary", types.OpSuffix, "summary", " Open to relocation."},
		{"summary default prefix", "add Certified architect. to my summary", types.OpPrefix, "summary", "Certified architect. "},
		{"achievement labeled", "add achievement: Reduced latency by 40%", types.OpAppend, "experiences[0].achievements", "Reduced latency by 40%"},
		{"achievement replace ordinal", "change the second achievement to Led 5 engineers", types.OpReplace, "experiences[0].achievements[1]", "Led 5 engineers"},
		{"achievement remove last", "remove the last achievement", types.OpRemove, "experiences[0].achievements[-1]", nil},
		{"experience company", "change my company to Acme Corp", types.OpReplace, "experiences[0].company", "Acme Corp"},
		{"experience remove", "remove my previous job", types.OpRemove, "experiences[1]", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parse(t, tt.message, ictx)
			require.True(t, result.IsModification)
			require.False(t, result.RequiresClarification, "question: %s", result.ClarificationQuestion)
			assert.Equal(t, tt.op, result.Operation)
			assert.Equal(t, tt.path, result.FieldPath)
			assert.Equal(t, tt.value, result.NewValue)
			assert.GreaterOrEqual(t, result.Confidence, 0.7)
		})
	}
}

func TestRegexParser_Normalization(t *testing.T) {
	tests := []struct {
		name    string
		message string
		path    string
	}{
		{"skills typo", "add Rust to my skils", "skills.technical"},
		{"summary typo", "change my summery to Builder", "summary"},
		{"stray letter", "a add Rust to my skills", "skills.technical"},
		{"politeness", "Please change my email to me@example.com", "contact.email"},
		{"could you", "could you update my email to me@example.com?", "contact.email"},
		{"upper case", "CHANGE EMAIL TO ME@EXAMPLE.COM", "contact.email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parse(t, tt.message, nil)
			assert.True(t, result.Actionable())
			assert.Equal(t, tt.path, result.FieldPath)
		})
	}
}

func TestRegexParser_PreviousWithSingleExperience(t *testing.T) {
	result := parse(t, "change my previous job title to Analyst", &types.IntentContext{ExperienceCount: 1})
	assert.Equal(t, "experiences[0].title", result.FieldPath)
	assert.NotEmpty(t, result.Warnings)
}

func TestRegexParser_ContactValidationLowersConfidence(t *testing.T) {
	result := parse(t, "change email to not-an-address", nil)
	assert.Equal(t, "contact.email", result.FieldPath)
	assert.Equal(t, 0.6, result.Confidence)
	assert.NotEmpty(t, result.Warnings)

	result = parse(t, "change my phone to 12", nil)
	assert.Equal(t, 0.6, result.Confidence)
}

func TestRegexParser_DuplicateSkillSkips(t *testing.T) {
	ictx := &types.IntentContext{TechnicalSkills: []string{"Go", "Docker"}}

	result := parse(t, "add go to my skills", ictx)
	assert.True(t, result.ShouldSkip)
	assert.False(t, result.Actionable())
	assert.Empty(t, result.Operations())
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "already listed")

	result = parse(t, "add Go, Kafka and mentoring to my skills", ictx)
	assert.False(t, result.ShouldSkip)
	assert.Equal(t, []types.Operation{
		{Operation: types.OpAppend, FieldPath: "skills.technical", NewValue: "Kafka"},
		{Operation: types.OpAppend, FieldPath: "skills.soft", NewValue: "mentoring"},
	}, result.Operations())
	assert.Len(t, result.Warnings, 1)
}

func TestRegexParser_FlatSkills(t *testing.T) {
	ictx := &types.IntentContext{TechnicalSkills: []string{"Go"}, FlatSkills: true}
	result := parse(t, "add teamwork to my skills", ictx)
	assert.Equal(t, "skills", result.FieldPath)
}

func TestRegexParser_RemoveSeveralSkillsFromTheBack(t *testing.T) {
	ictx := &types.IntentContext{TechnicalSkills: []string{"Go", "SQL", "Docker"}}
	result := parse(t, "remove Go and Docker from my skills", ictx)
	assert.Equal(t, []types.Operation{
		{Operation: types.OpRemove, FieldPath: "skills.technical[2]"},
		{Operation: types.OpRemove, FieldPath: "skills.technical[0]"},
	}, result.Operations())
}

func TestRegexParser_Compound(t *testing.T) {
	result := parse(t, "change my title to Lead Engineer and update my summary to Builds reliable systems", nil)
	require.True(t, result.Actionable())
	assert.Equal(t, "experiences[0].title", result.FieldPath)
	assert.Equal(t, []types.Operation{
		{Operation: types.OpReplace, FieldPath: "experiences[0].title", NewValue: "Lead Engineer"},
		{Operation: types.OpReplace, FieldPath: "summary", NewValue: "Builds reliable systems"},
	}, result.Operations())
}

func TestRegexParser_CompoundAcrossVerbs(t *testing.T) {
	result := parse(t, "change my title to Staff Engineer and add Go to my skills", nil)
	assert.Equal(t, []types.Operation{
		{Operation: types.OpReplace, FieldPath: "experiences[0].title", NewValue: "Staff Engineer"},
		{Operation: types.OpAppend, FieldPath: "skills.technical", NewValue: "Go"},
	}, result.Operations())
}

func TestRegexParser_CompoundInheritsVerb(t *testing.T) {
	result := parse(t, "change email to a@b.com and phone to +1 555 123 4567", nil)
	ops := result.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "contact.email", ops[0].FieldPath)
	assert.Equal(t, "contact.phone", ops[1].FieldPath)
	assert.Equal(t, "+1 555 123 4567", ops[1].NewValue)
}

func TestRegexParser_AndInsideValueIsNotCompound(t *testing.T) {
	result := parse(t, "change my title to Research and Development Lead", nil)
	assert.Equal(t, "Research and Development Lead", result.NewValue)
	assert.Empty(t, result.Modifications)
}

func TestRegexParser_Clarification(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		confidence float64
	}{
		{"generic fallback", "update the thing", 0.3},
		{"bare add", "add Kubernetes", 0.4},
		{"section only", "change my summary", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parse(t, tt.message, nil)
			assert.True(t, result.IsModification)
			assert.True(t, result.RequiresClarification)
			assert.NotEmpty(t, result.ClarificationQuestion)
			assert.NotEmpty(t, result.SuggestedFields)
			assert.Equal(t, tt.confidence, result.Confidence)
			assert.Empty(t, result.Operations())
		})
	}
}

func TestRegexParser_ConfidenceInvariants(t *testing.T) {
	messages := []string{
		"add Senior to my job title",
		"change email to a@b.com",
		"update the thing",
		"add Kubernetes",
		"remove Go from my skills",
		"add II to my title",
		"change my summary",
		"set location to Tel Aviv",
		"make it pop",
		"delete my second achievement",
		"change my title to X and add Go to my skills",
		"hello there",
	}
	p := NewRegexParser()
	ictx := &types.IntentContext{ExperienceCount: 2, TechnicalSkills: []string{"Go"}}
	for _, msg := range messages {
		t.Run(msg, func(t *testing.T) {
			first, err := p.Parse(context.Background(), msg, ictx)
			require.NoError(t, err)
			second, err := p.Parse(context.Background(), msg, ictx)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			assert.GreaterOrEqual(t, first.Confidence, 0.0)
			assert.LessOrEqual(t, first.Confidence, 1.0)
			if first.RequiresClarification {
				assert.Less(t, first.Confidence, 0.7)
			}
			if first.Confidence < 0.5 && first.IsModification {
				assert.True(t, first.RequiresClarification)
			}
		})
	}
}

func TestIsTechnicalSkill(t *testing.T) {
	assert.True(t, IsTechnicalSkill("Go"))
	assert.True(t, IsTechnicalSkill("node.js"))
	assert.True(t, IsTechnicalSkill("AWS Lambda"))
	assert.False(t, IsTechnicalSkill("leadership"))
	assert.False(t, IsTechnicalSkill("public speaking"))
}

func TestSplitSkills(t *testing.T) {
	assert.Equal(t, []string{"Go", "Docker", "Kafka"}, splitSkills("Go, Docker and Kafka"))
	assert.Equal(t, []string{"Go"}, splitSkills("Go, go"))
	assert.Empty(t, splitSkills(" , "))
}
