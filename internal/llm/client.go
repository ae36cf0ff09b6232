// Package llm talks to the external model service. The service is a black
// box over HTTP: it accepts a prompt and returns text. Both pipeline calls
// (SQL generation and result interpretation) go through the same client.
package llm

import (
	"context"
	"errors"
)

// ErrGenerationFailed reports that the model service was unreachable,
// returned a bad status, or produced a malformed response.
var ErrGenerationFailed = errors.New("model generation failed")

type Client interface {
	// Generate sends one blocking request and returns the literal text
	// response. The context deadline bounds the call; there are no
	// automatic retries.
	Generate(ctx context.Context, prompt string) (string, error)
}
