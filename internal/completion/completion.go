package completion

import (
	"context"

	"github.com/aidekit/aide/internal/models"
)

// Options tweak a single completion call.
type Options struct {
	MaxTokens int
	// Temperature overrides the backend default when non-nil; zero is a
	// valid override.
	Temperature *float32
	// JSONOnly asks the provider for a strict JSON object response.
	JSONOnly bool
}

// TemperatureOf is a convenience for building a temperature override.
func TemperatureOf(v float32) *float32 { return &v }

// Backend produces a completion for a conversation. A nil message means "no
// completion available" -- the provider failed or was rate limited -- and
// the caller must degrade gracefully instead of retrying.
type Backend interface {
	Complete(ctx context.Context, messages []models.UserMessage, opts *Options) *models.UserMessage
}
