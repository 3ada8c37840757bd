package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_GetModel(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		tier   ModelTier
		want   string
	}{
		{"default lite", DefaultConfig(), TierLite, "gemini-2.5-flash-lite"},
		{"default standard", DefaultConfig(), TierStandard, "gemini-2.5-flash"},
		{"standard falls back to lite", &Config{Models: map[ModelTier]string{TierLite: "flash-lite"}}, TierStandard, "flash-lite"},
		{"blank model falls back to lite", &Config{Models: map[ModelTier]string{TierLite: "flash-lite", TierStandard: ""}}, TierStandard, "flash-lite"},
		{"unknown tier", DefaultConfig(), ModelTier("pro"), "gemini-2.5-flash-lite"},
		{"empty config", &Config{}, TierLite, ""},
		{"nil config", nil, TierLite, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.GetModel(tt.tier))
		})
	}
}
