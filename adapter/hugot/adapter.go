package hugot

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelineBackends"
	"github.com/knights-analytics/hugot/pipelines"
	"go.uber.org/zap"
)

type modelConfig struct {
	name             string
	modelsDir        string
	onnxFilePath     string
	externalDataPath string
}

// Adapter runs local ONNX models: a sentence embedding model and optionally a small
// generative model.
type Adapter struct {
	session          *hugot.Session
	embedding        *pipelines.FeatureExtractionPipeline
	generative       *pipelines.TextGenerationPipeline
	embeddingConfig  modelConfig
	generativeConfig modelConfig
	maxTokens        int
	logger           *zap.Logger
}

type Option func(*Adapter)

func WithEmbeddingModelName(name string) Option {
	return func(a *Adapter) {
		a.embeddingConfig.name = name
	}
}

func WithGenerativeModelName(name string) Option {
	return func(a *Adapter) {
		a.generativeConfig.name = name
	}
}

func WithEmbeddingModelOnnxFilePath(path string) Option {
	return func(a *Adapter) {
		a.embeddingConfig.onnxFilePath = path
	}
}

func WithGenerativeModelOnnxFilePath(path string) Option {
	return func(a *Adapter) {
		a.generativeConfig.onnxFilePath = path
	}
}

func WithGenerativeModelExternalDataPath(path string) Option {
	return func(a *Adapter) {
		a.generativeConfig.externalDataPath = path
	}
}

func WithEmbeddingModelsDir(path string) Option {
	return func(a *Adapter) {
		a.embeddingConfig.modelsDir = path
	}
}

func WithGenerativeModelsDir(path string) Option {
	return func(a *Adapter) {
		a.generativeConfig.modelsDir = path
	}
}

func WithMaxTokens(tokens int) Option {
	return func(a *Adapter) {
		a.maxTokens = tokens
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

const (
	defaultModelsDir    = "/models"
	defaultOnnxFilePath = "onnx/model.onnx"
	defaultMaxTokens    = 900
)

func New(ctx context.Context, session *hugot.Session, options ...Option) (*Adapter, error) {
	a := newAdapter(session, options...)

	a.logger.Sugar().With(
		"embedding model", a.embeddingConfig.name,
		"embedding models dir", a.embeddingConfig.modelsDir,
		"generative model", a.generativeConfig.name,
		"generative models dir", a.generativeConfig.modelsDir,
		"max tokens", a.maxTokens,
	).Info("init hugot adapter")

	if err := a.init(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

func newAdapter(session *hugot.Session, options ...Option) *Adapter {
	a := &Adapter{
		session:          session,
		embeddingConfig:  modelConfig{modelsDir: defaultModelsDir, onnxFilePath: defaultOnnxFilePath},
		generativeConfig: modelConfig{modelsDir: defaultModelsDir, onnxFilePath: defaultOnnxFilePath},
		maxTokens:        defaultMaxTokens,
		logger:           zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	return a
}

const adapterName = "hugot"

func (a *Adapter) Name() string {
	return adapterName + "/" + a.embeddingConfig.name
}

func (a *Adapter) init(ctx context.Context) error {
	if a.embeddingConfig.name == "" && a.generativeConfig.name == "" {
		return fmt.Errorf("either embedding model or generative model must be specified")
	}

	if a.embeddingConfig.name != "" {
		modelPath, err := a.ensureModel(a.embeddingConfig)
		if err != nil {
			return fmt.Errorf("embedding model: %w", err)
		}

		a.embedding, err = hugot.NewPipeline(a.session, hugot.FeatureExtractionConfig{
			ModelPath: modelPath,
			Name:      "embeddingPipeline",
		})
		if err != nil {
			return fmt.Errorf("failed to create embedding pipeline: %w", err)
		}
	}

	if a.generativeConfig.name != "" {
		modelPath, err := a.ensureModel(a.generativeConfig)
		if err != nil {
			return fmt.Errorf("generative model: %w", err)
		}

		a.generative, err = hugot.NewPipeline(a.session, hugot.TextGenerationConfig{
			ModelPath:    modelPath,
			Name:         "textGenerationPipeline",
			OnnxFilename: a.generativeConfig.onnxFilePath,
			Options: []pipelineBackends.PipelineOption[*pipelines.TextGenerationPipeline]{
				pipelines.WithMaxTokens(a.maxTokens),
				pipelines.WithGemmaTemplate(),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create generative pipeline: %w", err)
		}
	}

	return nil
}

// ensureModel returns the local path of the model, downloading it into the models dir first
// when it is not there yet.
func (a *Adapter) ensureModel(config modelConfig) (string, error) {
	modelPath, err := checkModelExists(config.modelsDir, config.name)
	if err != nil {
		return "", fmt.Errorf("failed to check model: %w", err)
	}
	if modelPath != "" {
		a.logger.Sugar().With("path", modelPath).Info("model already exists, skipping download")
		return modelPath, nil
	}

	a.logger.Sugar().With("model", config.name).Info("start downloading model")

	downloadOptions := hugot.NewDownloadOptions()
	downloadOptions.OnnxFilePath = config.onnxFilePath
	if config.externalDataPath != "" {
		downloadOptions.ExternalDataPath = config.externalDataPath
	}
	modelPath, err = hugot.DownloadModel(config.name, config.modelsDir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}

	a.logger.Sugar().With("model", config.name).Info("downloaded model")

	return modelPath, nil
}

func checkModelExists(destination, modelName string) (string, error) {
	modelName, _, _ = strings.Cut(modelName, ":")
	modelPath := path.Join(destination, strings.ReplaceAll(modelName, "/", "_"))

	_, err := os.Stat(modelPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return modelPath, nil
}
