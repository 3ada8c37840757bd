// Package types provides type definitions for structured data used throughout the resume-editor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// OperationType names one of the six document edit operations
type OperationType string

const (
	OpReplace OperationType = "replace"
	OpPrefix  OperationType = "prefix"
	OpSuffix  OperationType = "suffix"
	OpAppend  OperationType = "append"
	OpInsert  OperationType = "insert"
	OpRemove  OperationType = "remove"
)

// Valid reports whether o is a known operation
func (o OperationType) Valid() bool {
	switch o {
	case OpReplace, OpPrefix, OpSuffix, OpAppend, OpInsert, OpRemove:
		return true
	}
	return false
}

// RequiresValue reports whether the operation needs a new_value
func (o OperationType) RequiresValue() bool {
	return o != OpRemove
}

// Operation is a single edit addressed by a field path
type Operation struct {
	Operation OperationType `json:"operation" validate:"required,oneof=replace prefix suffix append insert remove"`
	FieldPath string        `json:"field_path" validate:"required"`
	NewValue  any           `json:"new_value,omitempty"`
}

// ModificationIntent is the structured reading of a free-text edit request
type ModificationIntent struct {
	IsModification        bool          `json:"is_modification"`
	Operation             OperationType `json:"operation,omitempty"`
	FieldPath             string        `json:"field_path"`
	NewValue              any           `json:"new_value,omitempty"`
	Confidence            float64       `json:"confidence" validate:"gte=0,lte=1"`
	RequiresClarification bool          `json:"requires_clarification,omitempty"`
	ClarificationQuestion string        `json:"clarification_question,omitempty"`
	SuggestedFields       []string      `json:"suggested_fields,omitempty"`
	Warnings              []string      `json:"warnings,omitempty"`
	ShouldSkip            bool          `json:"should_skip,omitempty"`
	Modifications         []Operation   `json:"modifications,omitempty"`
	Source                string        `json:"source,omitempty"`
}

// Actionable reports whether the intent can be applied without asking the user anything
func (i *ModificationIntent) Actionable() bool {
	return i != nil && i.IsModification && !i.RequiresClarification && !i.ShouldSkip
}

// Operations returns the edits carried by the intent. Compound intents return
// every modification; simple intents return the primary operation.
func (i *ModificationIntent) Operations() []Operation {
	if !i.Actionable() {
		return nil
	}
	if len(i.Modifications) > 0 {
		return i.Modifications
	}
	if i.FieldPath == "" || !i.Operation.Valid() {
		return nil
	}
	return []Operation{{Operation: i.Operation, FieldPath: i.FieldPath, NewValue: i.NewValue}}
}

// IntentContext carries what the intent parser may know about the current document
type IntentContext struct {
	ExperienceCount  int      `json:"experience_count"`
	ExperienceTitles []string `json:"experience_titles,omitempty"`
	TechnicalSkills  []string `json:"technical_skills,omitempty"`
	SoftSkills       []string `json:"soft_skills,omitempty"`
	// FlatSkills is set when skills is a single array rather than {technical, soft}
	FlatSkills bool `json:"flat_skills,omitempty"`
}
