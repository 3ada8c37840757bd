// Package llm wraps the hosted language-model completion service behind a
// small Client interface with model tiers and classified errors.
package llm

// ModelTier picks a model by how much of the instruction it has to hold
type ModelTier string

const (
	// TierLite classifies single instructions and extracts job fields
	TierLite ModelTier = "lite"
	// TierStandard classifies instructions that touch several résumé sections
	TierStandard ModelTier = "standard"
)

// Config maps tiers to Gemini model names
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the Gemini models the editor ships with
func DefaultConfig() *Config {
	return &Config{Models: map[ModelTier]string{
		TierLite:     "gemini-2.5-flash-lite",
		TierStandard: "gemini-2.5-flash",
	}}
}

// GetModel returns the model for tier. A tier with no model uses the lite
// one; "" means nothing is configured.
func (c *Config) GetModel(tier ModelTier) string {
	if c == nil {
		return ""
	}
	if model := c.Models[tier]; model != "" {
		return model
	}
	return c.Models[TierLite]
}
