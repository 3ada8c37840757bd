package schemas

import (
	"testing"
	"time"

	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryEmbeddedSchemaCompiles(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		Actions, AgentClassification, Artifacts, ATSReport, Diffs, HistoryRecord, ModificationIntent, Theme,
	}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			_, err := Get(name)
			assert.NoError(t, err)
		})
	}
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get("nope")
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidate_ReportsFieldsAndSchema(t *testing.T) {
	bad := validTheme()
	bad.PrimaryColor = "navy"
	err := Validate(Theme, bad)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, Theme, validationErr.Schema)
	require.NotEmpty(t, validationErr.Errors)
	assert.Equal(t, "primary_color", validationErr.Errors[0].Field)
	assert.Contains(t, err.Error(), "invalid theme: primary_color")

	err = ValidateBytes(Theme, []byte(`[]`))
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)

	_, err = Decode[types.Theme](Theme, []byte(`{`))
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func validTheme() types.Theme {
	return types.Theme{
		Font:            "Inter",
		PrimaryColor:    "#1e3a8a",
		AccentColor:     "#0ea5e9",
		TextColor:       "#111827",
		BackgroundColor: "#ffffff",
		Layout:          "single-column",
		Spacing:         "normal",
	}
}

func TestSafeParse_Theme(t *testing.T) {
	fallback := validTheme()

	good := validTheme()
	good.Layout = "two-column"
	got, err := SafeParse(Theme, good, fallback)
	require.NoError(t, err)
	assert.Equal(t, "two-column", got.Layout)

	bad := validTheme()
	bad.PrimaryColor = "navy"
	got, err = SafeParse(Theme, bad, fallback)
	assert.Error(t, err)
	assert.Equal(t, fallback, got)
}

func TestSafeParse_Report(t *testing.T) {
	fallback := &types.Report{
		MissingKeywords: []string{},
		Recommendations: []types.Suggestion{},
		Languages:       map[string]types.LanguageScore{},
	}

	report := &types.Report{
		Score:           72,
		SubScores:       types.SubScores{KeywordExact: 80, RecencyFit: 100},
		MissingKeywords: []string{"kafka"},
		Recommendations: []types.Suggestion{{Category: types.CategoryKeywords, Text: "Mention kafka", EstimatedGain: 2}},
		Languages:       map[string]types.LanguageScore{"latin": {Score: 50, Gaps: []string{"kafka"}}},
	}
	got, err := SafeParse(ATSReport, report, fallback)
	require.NoError(t, err)
	assert.Same(t, report, got)

	tests := []struct {
		name   string
		mutate func(r *types.Report)
	}{
		{"score over 100", func(r *types.Report) { r.Score = 140 }},
		{"subscore negative", func(r *types.Report) { r.SubScores.TitleAlignment = -5 }},
		{"nil keywords", func(r *types.Report) { r.MissingKeywords = nil }},
		{"unknown category", func(r *types.Report) { r.Recommendations[0].Category = "vibes" }},
		{"language gaps nil", func(r *types.Report) { r.Languages["latin"] = types.LanguageScore{Score: 1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := *report
			broken.Recommendations = append([]types.Suggestion(nil), report.Recommendations...)
			broken.Languages = map[string]types.LanguageScore{"latin": report.Languages["latin"]}
			tt.mutate(&broken)

			got, err := SafeParse(ATSReport, &broken, fallback)
			assert.Error(t, err)
			assert.Same(t, fallback, got)
		})
	}

	var nilReport *types.Report
	got, err = SafeParse(ATSReport, nilReport, fallback)
	assert.Error(t, err)
	assert.Same(t, fallback, got)
}

func TestSafeParse_DiffsAndActions(t *testing.T) {
	diffs := []types.Diff{{Scope: types.ScopeBullet, Before: "", After: "Shipped v2"}}
	got, err := SafeParse(Diffs, diffs, []types.Diff{})
	require.NoError(t, err)
	assert.Equal(t, diffs, got)

	got, err = SafeParse(Diffs, []types.Diff{{Scope: "page"}}, []types.Diff{})
	assert.Error(t, err)
	assert.Empty(t, got)

	got, err = SafeParse(Diffs, []types.Diff(nil), []types.Diff{})
	assert.Error(t, err)
	assert.NotNil(t, got)

	actions := []types.Action{{Tool: "ats.score", Rationale: "job text supplied"}}
	_, err = SafeParse(Actions, actions, []types.Action(nil))
	assert.NoError(t, err)
	_, err = SafeParse(Actions, []types.Action{{Rationale: "no tool"}}, []types.Action(nil))
	assert.Error(t, err)
}

func TestSafeParse_HistoryRecordAndArtifacts(t *testing.T) {
	score := 64
	rec := &types.HistoryRecord{VersionID: "v1", Timestamp: time.Now(), Score: &score}
	_, err := SafeParse(HistoryRecord, rec, (*types.HistoryRecord)(nil))
	assert.NoError(t, err)

	_, err = SafeParse(HistoryRecord, &types.HistoryRecord{Timestamp: time.Now()}, (*types.HistoryRecord)(nil))
	assert.Error(t, err)

	_, err = SafeParse(Artifacts, types.Artifacts{Document: map[string]any{"a": 1}}, types.Artifacts{})
	assert.NoError(t, err)
}

func TestDecode_ModificationIntentAndClassification(t *testing.T) {
	intent, err := Decode[types.ModificationIntent](ModificationIntent,
		[]byte(`{"is_modification": true, "operation": "replace", "field_path": "title", "new_value": "Lead", "confidence": 0.9}`))
	require.NoError(t, err)
	assert.Equal(t, types.OpReplace, intent.Operation)

	_, err = Decode[types.ModificationIntent](ModificationIntent, []byte(`{"is_modification": true, "confidence": 2}`))
	assert.Error(t, err)

	_, err = Decode[types.ModificationIntent](ModificationIntent, []byte(`not json`))
	assert.Error(t, err)

	type classification struct {
		Intent     types.AgentIntent `json:"intent"`
		Confidence float64           `json:"confidence"`
	}
	c, err := Decode[classification](AgentClassification, []byte(`{"intent": "customize_design", "confidence": 0.8}`))
	require.NoError(t, err)
	assert.Equal(t, types.IntentCustomizeDesign, c.Intent)

	_, err = Decode[classification](AgentClassification, []byte(`{"intent": "dance"}`))
	assert.Error(t, err)
}
