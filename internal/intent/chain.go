package intent

import (
	"context"
	"errors"

	"github.com/jonathan/resume-editor/internal/types"
	"go.uber.org/zap"
)

// Chain tries parsers in order and returns the first answer that needs no
// clarification, whether or not it is a modification. Later parsers only see
// messages the earlier ones could not place. When none resolves the message
// the first parser's answer is returned, so a failing model never hides a
// regex result.
type Chain struct {
	parsers []Parser
	logger  *zap.Logger
}

// NewChain composes parsers. A nil logger disables logging.
func NewChain(logger *zap.Logger, parsers ...Parser) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{parsers: parsers, logger: logger}
}

// Parse implements Parser
func (c *Chain) Parse(ctx context.Context, message string, ictx *types.IntentContext) (*types.ModificationIntent, error) {
	var fallback *types.ModificationIntent
	for i, p := range c.parsers {
		result, err := p.Parse(ctx, message, ictx)
		if err != nil {
			if errors.Is(err, ErrEmptyMessage) {
				return nil, err
			}
			c.logger.Warn("intent parser failed", zap.Int("parser", i), zap.Error(err))
			continue
		}
		if !result.RequiresClarification {
			return result, nil
		}
		if fallback == nil {
			fallback = result
		}
	}
	if fallback == nil {
		return ambiguous(), nil
	}
	return fallback, nil
}
