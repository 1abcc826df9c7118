package pdf

import (
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Adapter extracts layout blocks from PDF files. By default it calls a document layout
// analysis service; WithLocalText switches to reading the PDF text layer in process.
type Adapter struct {
	httpClient *http.Client
	baseURL    string
	local      *textExtractor
	logger     *zap.Logger
}

type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func WithBaseURL(url string) Option {
	return func(a *Adapter) {
		a.baseURL = url
	}
}

func WithHttpClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

// WithLocalText reads the text layer of pages between pageMin and pageMax, inclusive,
// without calling the layout service. Headers and tables are not detected in this mode.
func WithLocalText(pageMin, pageMax int) Option {
	return func(a *Adapter) {
		a.local = &textExtractor{
			pageMin:   pageMin,
			pageMax:   pageMax,
			xRangeMin: math.Inf(-1),
			xRangeMax: math.Inf(1),
		}
	}
}

const defaultBaseURL = "http://pdf-document-layout-analysis:5060"

func New(options ...Option) *Adapter {
	a := &Adapter{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    defaultBaseURL,
		logger:     zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	a.logger.Sugar().With(
		"base URL", a.baseURL,
		"local", a.local != nil,
	).Info("init pdf adapter")

	return a
}
