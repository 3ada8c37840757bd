package intent

import (
	"context"

	"github.com/jonathan/resume-editor/internal/types"
)

// Parser classifies an instruction into a modification intent. Implementations
// return ErrEmptyMessage for blank input and otherwise always produce an intent,
// using RequiresClarification rather than an error for ambiguous requests.
type Parser interface {
	Parse(ctx context.Context, message string, ictx *types.IntentContext) (*types.ModificationIntent, error)
}

const (
	sourceRegex = "regex"
	sourceModel = "model"
)

const (
	confidenceReplace  = 0.95
	confidenceEdit     = 0.9
	confidenceRemove   = 0.9
	confidenceWeak     = 0.6
	confidenceSection  = 0.5
	confidenceBareAdd  = 0.4
	confidenceFallback = 0.3
	// clarificationCeiling keeps clarifying intents below the action threshold
	clarificationCeiling = 0.69
)

// commonFields are offered when the target of an edit cannot be determined
var commonFields = []string{
	"experiences[0].title",
	"summary",
	"skills.technical",
	"contact.email",
	"contact.phone",
	"contact.location",
	"experiences[0].achievements",
}

func notModification() *types.ModificationIntent {
	return &types.ModificationIntent{IsModification: false, Confidence: 0.9, Source: sourceRegex}
}

func edit(op types.OperationType, path string, value any, confidence float64) *types.ModificationIntent {
	return &types.ModificationIntent{
		IsModification: true,
		Operation:      op,
		FieldPath:      path,
		NewValue:       value,
		Confidence:     confidence,
		Source:         sourceRegex,
	}
}

func clarify(question string, confidence float64, fields ...string) *types.ModificationIntent {
	if confidence > clarificationCeiling {
		confidence = clarificationCeiling
	}
	if len(fields) == 0 {
		fields = commonFields
	}
	return &types.ModificationIntent{
		IsModification:        true,
		Confidence:            confidence,
		RequiresClarification: true,
		ClarificationQuestion: question,
		SuggestedFields:       fields,
		Source:                sourceRegex,
	}
}

func ambiguous() *types.ModificationIntent {
	return clarify(
		"Which part of your résumé should I change? You can edit your job title, summary, skills, email, phone, location, or an achievement.",
		confidenceFallback,
	)
}
