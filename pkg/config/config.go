package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP    HTTP    `mapstructure:"http"`
	DB      DB      `mapstructure:"db"`
	Redis   Redis   `mapstructure:"redis"`
	Adapter Adapter `mapstructure:"adapter"`
	Agents  Agents  `mapstructure:"agents"`
	Ingest  Ingest  `mapstructure:"ingest"`
	Log     Log     `mapstructure:"log"`
	Metrics Metrics `mapstructure:"metrics"`
}

type HTTP struct {
	Host          string        `mapstructure:"host"`
	Port          string        `mapstructure:"port"`
	ActTimeout    time.Duration `mapstructure:"act_timeout"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
	UploadsDir    string        `mapstructure:"uploads_dir"`
}

func (h HTTP) Address() string {
	return h.Host + ":" + h.Port
}

type DB struct {
	Name           string `mapstructure:"name"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type Redis struct {
	Addr                 string `mapstructure:"addr"`
	Password             string `mapstructure:"password"`
	DB                   int    `mapstructure:"db"`
	Protocol             int    `mapstructure:"protocol"`
	Index                string `mapstructure:"index"`
	IndexPrefix          string `mapstructure:"index_prefix"`
	DocPrefix            string `mapstructure:"doc_prefix"`
	VectorDim            int    `mapstructure:"vector_dim"`
	VectorDistanceMetric string `mapstructure:"vector_distance_metric"`
}

type Model struct {
	Name         string `mapstructure:"name"`
	Model        string `mapstructure:"model"`
	ModelsDir    string `mapstructure:"models_dir"`
	OnnxFilePath string `mapstructure:"onnx_file_path"`
	// ExternalDataPath names the ONNX external weights file of a local model, if it has one.
	ExternalDataPath string `mapstructure:"external_data_path"`
	// MaxTokens bounds generated output of a local generative model.
	MaxTokens int `mapstructure:"max_tokens"`
	// RPS caps requests per second sent to the model, zero disables the limit.
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Extract configures the layout extractor. Name "pdf" calls the layout service at BaseURL,
// or reads the text layer in-process when Local is set. Name "document" sends the file to
// the Gemini Model.
type Extract struct {
	Name    string `mapstructure:"name"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Local   bool   `mapstructure:"local"`
	PageMin int    `mapstructure:"page_min"`
	PageMax int    `mapstructure:"page_max"`
}

type Adapter struct {
	Embed      Model   `mapstructure:"embed"`
	Generative Model   `mapstructure:"generative"`
	Extract    Extract `mapstructure:"extract"`
}

type Agents struct {
	Root         string `mapstructure:"root"`
	TemplatesDir string `mapstructure:"templates_dir"`
	CacheSize    int    `mapstructure:"cache_size"`
}

type Ingest struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

type Metrics struct {
	Enabled bool `mapstructure:"enabled"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "localhost")
	v.SetDefault("http.port", "9020")
	v.SetDefault("http.act_timeout", "60s")
	v.SetDefault("http.max_upload_size", 50<<20)
	v.SetDefault("http.uploads_dir", "uploads")
	v.SetDefault("db.name", "agentrouter.sqlite")
	v.SetDefault("db.migrations_path", "db/migrations")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.protocol", 2)
	v.SetDefault("redis.index", "chunk-idx")
	v.SetDefault("redis.index_prefix", "chunk:")
	v.SetDefault("redis.doc_prefix", "docrec:")
	v.SetDefault("redis.vector_dim", 768)
	v.SetDefault("redis.vector_distance_metric", "COSINE")
	v.SetDefault("adapter.embed.name", "google-genai")
	v.SetDefault("adapter.embed.model", "text-embedding-004")
	v.SetDefault("adapter.embed.models_dir", "/models")
	v.SetDefault("adapter.generative.name", "google-genai")
	v.SetDefault("adapter.generative.model", "gemini-2.5-flash")
	v.SetDefault("adapter.generative.models_dir", "/models")
	v.SetDefault("adapter.generative.max_tokens", 900)
	v.SetDefault("adapter.generative.rps", 0)
	v.SetDefault("adapter.generative.burst", 1)
	v.SetDefault("adapter.extract.name", "pdf")
	v.SetDefault("adapter.extract.model", "gemini-2.5-flash")
	v.SetDefault("adapter.extract.base_url", "http://pdf-document-layout-analysis:5060")
	v.SetDefault("adapter.extract.local", false)
	v.SetDefault("adapter.extract.page_min", 0)
	v.SetDefault("adapter.extract.page_max", 0)
	v.SetDefault("agents.root", "agents")
	v.SetDefault("agents.templates_dir", "templates")
	v.SetDefault("agents.cache_size", 256)
	v.SetDefault("ingest.chunk_size", 700)
	v.SetDefault("ingest.chunk_overlap", 75)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("metrics.enabled", true)
}

// Load reads config.yaml from the given directories (the working directory when none
// are given). Values can be overridden by environment variables, e.g. REDIS_ADDR for
// redis.addr, which may also come from a .env file.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return nil, fmt.Errorf("ingest.chunk_overlap (%d) must be smaller than ingest.chunk_size (%d)", cfg.Ingest.ChunkOverlap, cfg.Ingest.ChunkSize)
	}

	return cfg, nil
}
