package hugot

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot/pipelines"
)

func (a *Adapter) Generate(ctx context.Context, prompt string) (string, error) {
	if a.generative == nil {
		return "", fmt.Errorf("no generative model configured")
	}

	a.logger.Sugar().With("prompt length", len(prompt)).Debug("generating answer")

	batchResult, err := a.generative.RunWithTemplate([][]pipelines.Message{
		{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling generative model: %w", err)
	}

	outputs := batchResult.GetOutput()
	if len(outputs) != 1 {
		return "", fmt.Errorf("got %d outputs, expected 1", len(outputs))
	}

	answer, ok := outputs[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected output type %T", outputs[0])
	}

	return answer, nil
}
