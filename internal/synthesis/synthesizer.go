package synthesis

import (
	"context"
	"time"

	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
)

// Synthesizer invokes the injected language-model capability with a built
// prompt and returns the raw model text. It performs no retries: retry policy
// belongs to the provider client behind the Generator interface.
type Synthesizer struct {
	gen    domain.Generator
	logger *observability.Logger
}

// NewSynthesizer creates a synthesizer around the given generator.
func NewSynthesizer(gen domain.Generator, logger *observability.Logger) *Synthesizer {
	return &Synthesizer{gen: gen, logger: logger}
}

// Synthesize sends the prompt to the model and returns its raw output.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt string) (string, error) {
	if s.gen == nil {
		return "", domain.ModelInvocationError("no language model capability configured", nil)
	}

	start := time.Now()
	raw, err := s.gen.Generate(ctx, prompt)
	observability.ObserveModelInvocation(time.Since(start))

	if err != nil {
		s.logger.WithContext(ctx).Error().
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("Model invocation failed")
		return "", domain.ModelInvocationError("language model call failed", err)
	}

	s.logger.WithContext(ctx).Debug().
		Int("response_length", len(raw)).
		Dur("elapsed", time.Since(start)).
		Msg("Model invocation complete")

	return raw, nil
}
