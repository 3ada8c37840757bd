package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-editor/internal/llm"
	"github.com/jonathan/resume-editor/internal/types"
)

type fakeLLM struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeLLM) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier)
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func (f *fakeLLM) GetModel(llm.ModelTier) string { return "fake" }
func (f *fakeLLM) Close() error                  { return nil }

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		message string
		want    types.AgentIntent
		ok      bool
	}{
		{"add Senior to my job title", types.IntentEditContent, true},
		{"change email to a@b.com", types.IntentEditContent, true},
		{"change background to navy", types.IntentCustomizeDesign, true},
		{"change my job title to Design Lead", types.IntentEditContent, true},
		{"change my job title to Navy Officer", types.IntentEditContent, true},
		{"change the font of my summary to Lato", types.IntentCustomizeDesign, true},
		{"make the headings dark navy", types.IntentCustomizeDesign, true},
		{"use Lato font", types.IntentCustomizeDesign, true},
		{"switch to a two column layout", types.IntentCustomizeDesign, true},
		{"tailor my resume for this job", types.IntentOptimize, true},
		{"optimize for https://jobs.example.com/42", types.IntentOptimize, true},
		{"what is my ATS score?", types.IntentScore, true},
		{"how well does this match the job", types.IntentScore, true},
		{"hello there", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got, ok := DetectIntent(tt.message)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectIntent_Deterministic(t *testing.T) {
	first, _ := DetectIntent("update my summary and job title")
	for i := 0; i < 10; i++ {
		again, _ := DetectIntent("update my summary and job title")
		assert.Equal(t, first, again)
	}
}

func TestExtractSignals(t *testing.T) {
	s := ExtractSignals("optimize for https://jobs.example.com/42, skills: Go, Kafka, go; use Lato font and strengthen my summary")
	assert.Equal(t, "https://jobs.example.com/42", s.JobURL)
	assert.Equal(t, []string{"Go", "Kafka"}, s.Skills)
	assert.Equal(t, "Lato", s.Theme.Font)
	assert.True(t, s.Strengthen)

	s = ExtractSignals("add skills Docker Terraform")
	assert.Equal(t, []string{"Docker", "Terraform"}, s.Skills)
	assert.Empty(t, s.JobURL)
	assert.False(t, s.Strengthen)

	s = ExtractSignals("make it shine")
	assert.Empty(t, s.Skills)
	assert.True(t, s.Theme.Empty())
}

func TestModelClassifier(t *testing.T) {
	client := &fakeLLM{reply: "```json\n{\"intent\": \"score\", \"confidence\": 0.8}\n```"}
	got, err := NewModelClassifier(client).Classify(context.Background(), "how am I doing")
	require.NoError(t, err)
	assert.Equal(t, types.IntentScore, got)
	assert.Contains(t, client.prompt, "how am I doing")
}

func TestModelClassifier_Errors(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeLLM
	}{
		{"generation fails", &fakeLLM{err: errors.New("rate limited")}},
		{"not json", &fakeLLM{reply: "optimize, probably"}},
		{"unknown intent", &fakeLLM{reply: `{"intent": "dance"}`}},
		{"confidence out of range", &fakeLLM{reply: `{"intent": "score", "confidence": 3}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModelClassifier(tt.client).Classify(context.Background(), "hi")
			assert.Error(t, err)
		})
	}
}
