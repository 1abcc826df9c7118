// Package document extracts layout blocks from a PDF by sending it to a Gemini model,
// for deployments without the layout analysis service.
package document

import (
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type Adapter struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

type Option func(*Adapter)

func WithModel(model string) Option {
	return func(a *Adapter) {
		a.model = model
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

const defaultModel = "gemini-2.5-flash"

func New(client *genai.Client, options ...Option) *Adapter {
	a := &Adapter{
		client: client,
		model:  defaultModel,
		logger: zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	a.logger.Sugar().With(
		"model", a.model,
	).Info("init google document adapter")

	return a
}

const adapterName = "document"

func (a *Adapter) Name() string {
	return adapterName + "/" + a.model
}
