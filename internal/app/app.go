// Package app builds the adapters shared by the binaries from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/RichardKnop/agentrouter"
	"github.com/RichardKnop/agentrouter/adapter/document"
	googlegenai "github.com/RichardKnop/agentrouter/adapter/google-genai"
	hugotAdapter "github.com/RichardKnop/agentrouter/adapter/hugot"
	"github.com/RichardKnop/agentrouter/adapter/pdf"
	redisAdapter "github.com/RichardKnop/agentrouter/adapter/redis"
	"github.com/RichardKnop/agentrouter/pkg/config"
)

const (
	adapterGoogleGenAI = "google-genai"
	adapterHugot       = "hugot"
	adapterPDF         = "pdf"
	adapterDocument    = "document"
)

// Models holds the embedder and generative model selected by configuration. Close
// releases the local inference session, if one was opened.
type Models struct {
	Embedder   agentrouter.Embedder
	Generative agentrouter.GenerativeModel
	Close      func() error
}

func NewModels(ctx context.Context, cfg config.Adapter, logger *zap.Logger) (*Models, error) {
	var (
		embedName = cfg.Embed.Name
		genName   = cfg.Generative.Name
		models    = &Models{Close: func() error { return nil }}
	)

	for _, name := range []string{embedName, genName} {
		if name != adapterGoogleGenAI && name != adapterHugot {
			return nil, fmt.Errorf("unknown model adapter: %s", name)
		}
	}

	if embedName == adapterGoogleGenAI || genName == adapterGoogleGenAI {
		// The client gets the API key from the environment variable `GEMINI_API_KEY`.
		genaiClient, err := genai.NewClient(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("genai client: %w", err)
		}
		gAdapter := googlegenai.New(
			genaiClient,
			googlegenai.WithEmbeddingModel(cfg.Embed.Model),
			googlegenai.WithGenerativeModel(cfg.Generative.Model),
			googlegenai.WithLogger(logger),
		)
		if embedName == adapterGoogleGenAI {
			models.Embedder = gAdapter
		}
		if genName == adapterGoogleGenAI {
			models.Generative = gAdapter
		}
	}

	if embedName == adapterHugot || genName == adapterHugot {
		session, err := hugot.NewGoSession()
		if err != nil {
			return nil, fmt.Errorf("hugot session: %w", err)
		}
		models.Close = session.Destroy

		opts := append(hugotOptions(cfg, embedName == adapterHugot, genName == adapterHugot), hugotAdapter.WithLogger(logger))

		hAdapter, err := hugotAdapter.New(ctx, session, opts...)
		if err != nil {
			return nil, fmt.Errorf("hugot adapter: %w", err)
		}
		if embedName == adapterHugot {
			models.Embedder = hAdapter
		}
		if genName == adapterHugot {
			models.Generative = hAdapter
		}
	}

	models.Generative = agentrouter.RateLimited(models.Generative, cfg.Generative.RPS, cfg.Generative.Burst)

	logger.Sugar().With(
		"embed adapter", models.Embedder.Name(),
		"generative adapter", genName,
		"generative rps", cfg.Generative.RPS,
	).Info("models ready")

	return models, nil
}

func NewRetriever(ctx context.Context, cfg config.Redis, logger *zap.Logger) (*redisAdapter.Adapter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Protocol: cfg.Protocol,
	})
	retriever, err := redisAdapter.New(
		ctx,
		rdb,
		redisAdapter.WithIndexName(cfg.Index),
		redisAdapter.WithIndexPrefix(cfg.IndexPrefix),
		redisAdapter.WithDocPrefix(cfg.DocPrefix),
		redisAdapter.WithDialectVersion(cfg.Protocol),
		redisAdapter.WithVectorDim(cfg.VectorDim),
		redisAdapter.WithVectorDistanceMetric(cfg.VectorDistanceMetric),
		redisAdapter.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: %w", err)
	}
	return retriever, nil
}

func NewExtractor(ctx context.Context, cfg config.Extract, logger *zap.Logger) (agentrouter.Extractor, error) {
	switch cfg.Name {
	case adapterPDF:
	case adapterDocument:
		genaiClient, err := genai.NewClient(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("genai client: %w", err)
		}
		return document.New(genaiClient, document.WithModel(cfg.Model), document.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown extract adapter: %s", cfg.Name)
	}

	opts := []pdf.Option{
		pdf.WithBaseURL(cfg.BaseURL),
		pdf.WithLogger(logger),
	}
	if cfg.Local {
		opts = append(opts, pdf.WithLocalText(cfg.PageMin, cfg.PageMax))
	}

	return pdf.New(opts...), nil
}

// hugotOptions configures the local models, each with its own models directory.
func hugotOptions(cfg config.Adapter, embed, generative bool) []hugotAdapter.Option {
	var opts []hugotAdapter.Option
	if embed {
		opts = append(opts, hugotAdapter.WithEmbeddingModelName(cfg.Embed.Model))
		if cfg.Embed.ModelsDir != "" {
			opts = append(opts, hugotAdapter.WithEmbeddingModelsDir(cfg.Embed.ModelsDir))
		}
		if cfg.Embed.OnnxFilePath != "" {
			opts = append(opts, hugotAdapter.WithEmbeddingModelOnnxFilePath(cfg.Embed.OnnxFilePath))
		}
	}
	if generative {
		opts = append(opts, hugotAdapter.WithGenerativeModelName(cfg.Generative.Model))
		if cfg.Generative.ModelsDir != "" {
			opts = append(opts, hugotAdapter.WithGenerativeModelsDir(cfg.Generative.ModelsDir))
		}
		if cfg.Generative.OnnxFilePath != "" {
			opts = append(opts, hugotAdapter.WithGenerativeModelOnnxFilePath(cfg.Generative.OnnxFilePath))
		}
		if cfg.Generative.ExternalDataPath != "" {
			opts = append(opts, hugotAdapter.WithGenerativeModelExternalDataPath(cfg.Generative.ExternalDataPath))
		}
		if cfg.Generative.MaxTokens > 0 {
			opts = append(opts, hugotAdapter.WithMaxTokens(cfg.Generative.MaxTokens))
		}
	}
	return opts
}
