package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Extraction asks the model to copy a flat set of string fields out of a text
type Extraction struct {
	Name   string
	Task   string
	Fields []Field
	// MaxInput caps the runes of input placed in the prompt; zero sends all of it
	MaxInput int
}

// Field is one key of the extraction reply
type Field struct {
	Key  string
	Hint string
}

// Prompt renders the request for input
func (e Extraction) Prompt(input string) string {
	if e.MaxInput > 0 {
		if r := []rune(input); len(r) > e.MaxInput {
			input = string(r[:e.MaxInput])
		}
	}

	var sb strings.Builder
	sb.WriteString(e.Task)
	sb.WriteString("\n\nReply with one JSON object and nothing else. Keys:\n")
	for _, f := range e.Fields {
		fmt.Fprintf(&sb, "- %q: %s\n", f.Key, f.Hint)
	}
	sb.WriteString("Use an empty string for anything the text does not state.\n\nText:\n<<<\n")
	sb.WriteString(input)
	sb.WriteString("\n>>>\n")
	return sb.String()
}

// Extract runs e over input and decodes the reply into out. A reply missing
// any key of e is malformed.
func Extract(ctx context.Context, client Client, e Extraction, input string, out any) error {
	raw, err := client.GenerateJSON(ctx, e.Prompt(input), TierLite)
	if err != nil {
		return err
	}
	body := []byte(CleanJSONBlock(raw))

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return &Error{Kind: KindMalformed, Message: e.Name + " reply is not a JSON object", Cause: err}
	}
	for _, f := range e.Fields {
		if _, ok := keys[f.Key]; !ok {
			return &Error{Kind: KindMalformed, Message: fmt.Sprintf("%s reply lacks %q", e.Name, f.Key)}
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindMalformed, Message: e.Name + " reply has the wrong shape", Cause: err}
	}
	return nil
}

// JobHeader pulls the role title and hiring company from a posting. Both sit
// near the top, so only the head of the text is sent.
func JobHeader() Extraction {
	return Extraction{
		Name:     "job header",
		Task:     "Read the job posting below and copy its job title and hiring company exactly as written.",
		MaxInput: 4000,
		Fields: []Field{
			{Key: "title", Hint: "the job title"},
			{Key: "company", Hint: "the hiring company"},
		},
	}
}
