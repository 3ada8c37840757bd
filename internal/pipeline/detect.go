package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/resume-editor/internal/intent"
	"github.com/jonathan/resume-editor/internal/llm"
	"github.com/jonathan/resume-editor/internal/prompts"
	"github.com/jonathan/resume-editor/internal/schemas"
	"github.com/jonathan/resume-editor/internal/theme"
	"github.com/jonathan/resume-editor/internal/types"
)

// DefaultIntent is used when neither the patterns nor the classifier resolve a message
const DefaultIntent = types.IntentEditContent

var (
	designRe   = regexp.MustCompile(`(?i)\b(?:fonts?|typeface|colou?rs?|themes?|layout|columns?|spacing|background|margins?|design|styling|look)\b`)
	scoreRe    = regexp.MustCompile(`(?i)\b(?:score|ats|rate|rating|evaluate|assess|how\s+well|match(?:es)?\s+(?:the\s+)?job)\b`)
	optimizeRe = regexp.MustCompile(`(?i)\b(?:optimi[sz]e|tailor|target|strengthen|improve|rewrite|fit\s+(?:this|the)\s+job|for\s+this\s+(?:job|role|position))\b`)
	editRe     = regexp.MustCompile(`(?i)\b(?:add|change|update|modify|remove|delete|replace|set|make|insert|append|prepend|rename|fix)\b`)

	contentParser = intent.NewRegexParser()
)

// isContentEdit reports whether the regex parser resolves the message to a
// résumé field and the words left after removing the new values carry no
// design or optimize cue. "change my job title to Design Lead" is a content
// edit even though the value says "Design".
func isContentEdit(message string) bool {
	if !editRe.MatchString(message) {
		return false
	}
	mod, err := contentParser.Parse(context.Background(), message, nil)
	if err != nil || !mod.Actionable() {
		return false
	}
	ops := mod.Operations()
	if len(ops) == 0 {
		return false
	}
	rest := message
	for _, op := range ops {
		v, ok := op.NewValue.(string)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			continue
		}
		if loc := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(v)).FindStringIndex(rest); loc != nil {
			rest = rest[:loc[0]] + rest[loc[1]:]
		}
	}
	if designRe.MatchString(rest) || optimizeRe.MatchString(rest) {
		return false
	}
	if c, ok := theme.ParseColorRequest(rest); ok && c.Target != theme.TargetPrimary {
		return false
	}
	return true
}

// DetectIntent classifies a message with patterns only. The second result
// is false when no pattern matches.
func DetectIntent(message string) (types.AgentIntent, bool) {
	if isContentEdit(message) {
		return types.IntentEditContent, true
	}
	if designRe.MatchString(message) {
		return types.IntentCustomizeDesign, true
	}
	if c, ok := theme.ParseColorRequest(message); ok && c.Target != theme.TargetPrimary {
		return types.IntentCustomizeDesign, true
	}
	if optimizeRe.MatchString(message) {
		return types.IntentOptimize, true
	}
	if scoreRe.MatchString(message) && !editRe.MatchString(message) {
		return types.IntentScore, true
	}
	if editRe.MatchString(message) {
		return types.IntentEditContent, true
	}
	return "", false
}

// Classifier resolves the agent intent when no pattern matches
type Classifier interface {
	Classify(ctx context.Context, message string) (types.AgentIntent, error)
}

// ModelClassifier asks a language model for the intent
type ModelClassifier struct {
	client llm.Client
}

// NewModelClassifier creates a classifier backed by client
func NewModelClassifier(client llm.Client) *ModelClassifier {
	return &ModelClassifier{client: client}
}

type classification struct {
	Intent     types.AgentIntent `json:"intent" validate:"required"`
	Confidence float64           `json:"confidence" validate:"gte=0,lte=1"`
	Rationale  string            `json:"rationale"`
}

// Classify implements Classifier. Responses that fail the
// agent_classification schema are errors.
func (c *ModelClassifier) Classify(ctx context.Context, message string) (types.AgentIntent, error) {
	prompt, err := prompts.Render("agent.json", "classify-intent", map[string]string{"Message": message})
	if err != nil {
		return "", fmt.Errorf("failed to load classification prompt: %w", err)
	}
	raw, err := c.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return "", fmt.Errorf("failed to classify intent: %w", err)
	}
	out, err := schemas.Decode[classification](schemas.AgentClassification, []byte(llm.CleanJSONBlock(raw)))
	if err != nil {
		return "", fmt.Errorf("failed to decode classification: %w", err)
	}
	if !out.Intent.Valid() {
		return "", fmt.Errorf("unknown intent %q", out.Intent)
	}
	return out.Intent, nil
}

// Signals are the command-style directives found in a message
type Signals struct {
	Skills     []string      `json:"skills,omitempty"`
	Theme      theme.Request `json:"theme,omitempty"`
	JobURL     string        `json:"job_url,omitempty"`
	Strengthen bool          `json:"strengthen,omitempty"`
}

var (
	skillsListRe = regexp.MustCompile(`(?i)\bskills?\s*[:=]\s*([^;\n]+)`)
	withSkillsRe = regexp.MustCompile(`(?i)\b(?:with|add(?:ing)?|include|including)\s+skills?\s+([^;\n]+)`)
	urlRe        = regexp.MustCompile(`https?://[^\s<>"']+`)
	strengthenRe = regexp.MustCompile(`(?i)\b(?:strengthen|rewrite|punch\s+up|improve|polish)\b`)
	commaRe      = regexp.MustCompile(`\s*,\s*`)
)

// ExtractSignals reads skill lists, design directives, a job URL and a
// strengthen request from a command such as
// "optimize for https://jobs.example.com/1 skills: Go, Kafka; font: Lato".
func ExtractSignals(message string) Signals {
	s := Signals{
		Theme:      theme.ParseDirectives(message),
		Strengthen: strengthenRe.MatchString(message),
	}
	if m := urlRe.FindString(message); m != "" {
		s.JobURL = strings.TrimRight(m, ".,;)")
	}

	var list string
	if m := skillsListRe.FindStringSubmatch(message); m != nil {
		list = m[1]
	} else if m := withSkillsRe.FindStringSubmatch(message); m != nil {
		list = m[1]
	}
	s.Skills = splitSkillList(list)
	return s
}

// splitSkillList splits on commas, or on spaces when there are none
func splitSkillList(list string) []string {
	list = strings.TrimSpace(urlRe.ReplaceAllString(list, ""))
	if list == "" {
		return nil
	}
	var parts []string
	if strings.Contains(list, ",") {
		parts = commaRe.Split(list, -1)
	} else {
		parts = strings.Fields(list)
	}

	var out []string
	seen := make(map[string]bool)
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), ".!?")
		p = strings.TrimPrefix(p, "and ")
		key := strings.ToLower(p)
		if p == "" || key == "and" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
