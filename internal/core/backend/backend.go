// Package backend builds the FieldExtractor chosen by configuration.
package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/joseph-ayodele/invoice-reader/internal/cache"
	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/core/llm"
	"github.com/joseph-ayodele/invoice-reader/internal/core/llm/anthropic"
	"github.com/joseph-ayodele/invoice-reader/internal/core/llm/openai"
	"github.com/joseph-ayodele/invoice-reader/internal/core/llm/vertex"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// New returns the provider client wrapped with retries and, when a cache
// path is configured, the extraction cache. The closer releases the client
// and the cache.
func New(ctx context.Context, cfg common.Config, logger *slog.Logger) (llm.FieldExtractor, io.Closer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var closers []io.Closer

	var (
		ext   llm.FieldExtractor
		model string
	)
	switch cfg.LLM.Provider {
	case common.ProviderOpenAI:
		c := openai.NewClient(openai.Config{
			APIKey:          cfg.LLM.APIKey,
			BaseURL:         cfg.LLM.BaseURL,
			Model:           cfg.LLM.Model,
			Temperature:     cfg.LLM.Temperature,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
			StopSequences:   cfg.LLM.StopSequences,
			Timeout:         cfg.LLM.Timeout,
		}, logger)
		ext, model = c, c.Model()
	case common.ProviderAnthropic:
		c := anthropic.NewClient(anthropic.Config{
			APIKey:          cfg.LLM.APIKey,
			BaseURL:         cfg.LLM.BaseURL,
			Model:           cfg.LLM.Model,
			Temperature:     cfg.LLM.Temperature,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
			StopSequences:   cfg.LLM.StopSequences,
			Timeout:         cfg.LLM.Timeout,
		}, logger)
		ext, model = c, c.Model()
	case common.ProviderVertex:
		c, err := vertex.NewClient(ctx, vertex.Config{
			ProjectID:       cfg.LLM.ProjectID,
			Location:        cfg.LLM.Location,
			CredentialsFile: cfg.LLM.CredentialsFile,
			Model:           cfg.LLM.Model,
			Temperature:     cfg.LLM.Temperature,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
			StopSequences:   cfg.LLM.StopSequences,
			Timeout:         cfg.LLM.Timeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, c)
		ext, model = c, c.Model()
	default:
		return nil, nil, fmt.Errorf("%w: unknown llm provider %q", common.ErrInvalidInput, cfg.LLM.Provider)
	}

	ext = llm.NewRetrying(ext, llm.RetryPolicy{
		MaxRetries: cfg.LLM.MaxRetries,
		Backoff:    cfg.LLM.RetryBackoff,
		MaxBackoff: cfg.LLM.RetryMaxBackoff,
	}, logger)

	if cfg.Cache.Path != "" {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			closeAll(closers)
			return nil, nil, err
		}
		closers = append(closers, store)
		ext = cache.NewExtractor(ext, store, cache.Params{
			Provider:        cfg.LLM.Provider,
			Model:           model,
			Temperature:     cfg.LLM.Temperature,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
			StopSequences:   cfg.LLM.StopSequences,
		}, logger)
	}

	logger.Info("llm.backend.ready", "provider", cfg.LLM.Provider, "model", model, "cache", cfg.Cache.Path != "")
	return ext, closerFunc(func() error { return closeAll(closers) }), nil
}

func closeAll(closers []io.Closer) error {
	var first error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
