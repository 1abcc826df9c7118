package agentrouter

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type rateLimitedModel struct {
	model   GenerativeModel
	limiter *rate.Limiter
}

// RateLimited wraps a generative model so that at most rps prompts per second are sent,
// with bursts of up to burst prompts. A non-positive rps returns the model unchanged.
func RateLimited(model GenerativeModel, rps float64, burst int) GenerativeModel {
	if rps <= 0 {
		return model
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimitedModel{
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (m *rateLimitedModel) Generate(ctx context.Context, prompt string) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return m.model.Generate(ctx, prompt)
}
