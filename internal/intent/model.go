package intent

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-editor/internal/fieldpath"
	"github.com/jonathan/resume-editor/internal/llm"
	"github.com/jonathan/resume-editor/internal/prompts"
	"github.com/jonathan/resume-editor/internal/types"
)

// ModelParser asks a language model to classify the instruction. It borrows
// only compound detection from RegexParser; compose the two with Chain.
type ModelParser struct {
	client   llm.Client
	sections *RegexParser
	validate *validator.Validate
}

// NewModelParser creates a model-backed parser. Instructions that address two
// sections go to the standard tier, everything else to the lite tier.
func NewModelParser(client llm.Client) *ModelParser {
	return &ModelParser{client: client, sections: NewRegexParser(), validate: validator.New()}
}

func (p *ModelParser) tierFor(message string) llm.ModelTier {
	if _, _, ok := p.sections.splitCompound(normalize(message)); ok {
		return llm.TierStandard
	}
	return llm.TierLite
}

// modelIntent is the JSON shape the prompt asks for
type modelIntent struct {
	IsModification        bool     `json:"is_modification"`
	Operation             string   `json:"operation" validate:"omitempty,oneof=replace prefix suffix append insert remove"`
	FieldPath             string   `json:"field_path"`
	NewValue              any      `json:"new_value"`
	Confidence            float64  `json:"confidence" validate:"gte=0,lte=1"`
	RequiresClarification bool     `json:"requires_clarification"`
	ClarificationQuestion string   `json:"clarification_question"`
	SuggestedFields       []string `json:"suggested_fields"`
	Warnings              []string `json:"warnings"`
}

// Parse implements Parser
func (p *ModelParser) Parse(ctx context.Context, message string, ictx *types.IntentContext) (*types.ModificationIntent, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if ictx == nil {
		ictx = &types.IntentContext{}
	}

	contextJSON, err := json.Marshal(ictx)
	if err != nil {
		return nil, &ModelError{Message: "failed to encode context", Cause: err}
	}
	prompt, err := prompts.Render("intent.json", "parse-modification", map[string]string{
		"Message": message,
		"Context": string(contextJSON),
	})
	if err != nil {
		return nil, &ModelError{Message: "prompt unavailable", Cause: err}
	}

	raw, err := p.client.GenerateJSON(ctx, prompt, p.tierFor(message))
	if err != nil {
		return nil, &ModelError{Message: "generation failed", Cause: err}
	}

	var out modelIntent
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &out); err != nil {
		return nil, &ModelError{Message: "response is not valid JSON", Cause: err}
	}
	if err := p.validate.Struct(out); err != nil {
		return nil, &ModelError{Message: "response failed validation", Cause: err}
	}
	return out.toIntent()
}

func (m modelIntent) toIntent() (*types.ModificationIntent, error) {
	result := &types.ModificationIntent{
		IsModification:        m.IsModification,
		Operation:             types.OperationType(m.Operation),
		FieldPath:             m.FieldPath,
		NewValue:              m.NewValue,
		Confidence:            m.Confidence,
		RequiresClarification: m.RequiresClarification,
		ClarificationQuestion: m.ClarificationQuestion,
		SuggestedFields:       m.SuggestedFields,
		Warnings:              m.Warnings,
		Source:                sourceModel,
	}
	if result.RequiresClarification {
		result.Confidence = math.Min(result.Confidence, clarificationCeiling)
		if len(result.SuggestedFields) == 0 {
			result.SuggestedFields = commonFields
		}
		return result, nil
	}
	if !result.IsModification {
		return result, nil
	}

	if !result.Operation.Valid() {
		return nil, &ModelError{Message: "missing operation"}
	}
	if _, err := fieldpath.Parse(result.FieldPath); err != nil {
		return nil, &ModelError{Message: "invalid field path", Cause: err}
	}
	if result.Operation.RequiresValue() && result.NewValue == nil {
		return nil, &ModelError{Message: "new_value missing for " + string(result.Operation)}
	}
	return result, nil
}
