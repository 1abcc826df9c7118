package googlegenai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

func (a *Adapter) Generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(a.temperature),
		MaxOutputTokens: a.maxOutputTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr[int32](0), // Disables thinking
		},
	}

	a.logger.Sugar().With("model", a.generativeModel, "prompt length", len(prompt)).Debug("generating answer")

	resp, err := a.client.Models.GenerateContent(
		ctx,
		a.generativeModel,
		genai.Text(prompt),
		config,
	)
	if err != nil {
		return "", fmt.Errorf("calling generative model: %w", err)
	}
	if len(resp.Candidates) != 1 {
		return "", fmt.Errorf("got %v candidates, expected 1", len(resp.Candidates))
	}

	return resp.Text(), nil
}
