package googlegenai

import (
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type Adapter struct {
	client          *genai.Client
	embeddingModel  string
	generativeModel string
	batchSize       int
	temperature     float32
	maxOutputTokens int32
	logger          *zap.Logger
}

type Option func(*Adapter)

func WithEmbeddingModel(model string) Option {
	return func(a *Adapter) {
		a.embeddingModel = model
	}
}

func WithGenerativeModel(model string) Option {
	return func(a *Adapter) {
		a.generativeModel = model
	}
}

// WithBatchSize limits how many chunks are sent in one embedding request.
func WithBatchSize(size int) Option {
	return func(a *Adapter) {
		a.batchSize = size
	}
}

func WithTemperature(temperature float32) Option {
	return func(a *Adapter) {
		a.temperature = temperature
	}
}

func WithMaxOutputTokens(tokens int32) Option {
	return func(a *Adapter) {
		a.maxOutputTokens = tokens
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

const (
	defaultEmbeddingModel  = "text-embedding-004"
	defaultGenerativeModel = "gemini-2.5-flash"
	defaultBatchSize       = 100
	defaultTemperature     = 0.2
	defaultMaxOutputTokens = 900
)

func New(client *genai.Client, options ...Option) *Adapter {
	a := &Adapter{
		client:          client,
		embeddingModel:  defaultEmbeddingModel,
		generativeModel: defaultGenerativeModel,
		batchSize:       defaultBatchSize,
		temperature:     defaultTemperature,
		maxOutputTokens: defaultMaxOutputTokens,
		logger:          zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	a.logger.Sugar().With(
		"embedding model", a.embeddingModel,
		"generative model", a.generativeModel,
		"batch size", a.batchSize,
	).Info("init google genai adapter")

	return a
}

const adapterName = "google-genai"

func (a *Adapter) Name() string {
	return adapterName + "/" + a.embeddingModel
}
