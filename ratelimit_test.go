package agentrouter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RichardKnop/agentrouter"
)

func TestRateLimited(t *testing.T) {
	t.Parallel()

	t.Run("non positive rate returns the model unchanged", func(t *testing.T) {
		model := new(mockGenerative)
		assert.Same(t, model, agentrouter.RateLimited(model, 0, 5))
	})

	t.Run("burst passes then waits", func(t *testing.T) {
		model := new(mockGenerative)
		model.On("Generate", mock.Anything, "hello").Return("hi", nil).Once()

		limited := agentrouter.RateLimited(model, 0.001, 1)

		answer, err := limited.Generate(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, "hi", answer)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = limited.Generate(ctx, "hello")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)

		model.AssertExpectations(t)
	})
}
