package classifier

import (
	"context"
	"fmt"
	"time"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/metrics"
)

const (
	ProviderHTTP   = "http"
	ProviderGemini = "gemini"
)

// Classifier decides whether a message promotes gambling.
type Classifier interface {
	Classify(ctx context.Context, text string) (bool, error)
}

// New builds the classifier selected by cfg.Provider.
func New(ctx context.Context, cfg config.ClassifierConfig) (Classifier, error) {
	switch cfg.Provider {
	case ProviderHTTP, "":
		return NewHTTPClassifier(cfg.Endpoint, cfg.Timeout)
	case ProviderGemini:
		return NewGeminiClassifier(ctx, cfg.GeminiApiKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}

func observe(provider string, start time.Time, err error) {
	metrics.ClassifierDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ClassifierErrors.WithLabelValues(provider).Inc()
	}
}
