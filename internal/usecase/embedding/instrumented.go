package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/resilience"
)

// OpEmbed is the resilience operation name for provider embedding calls.
const OpEmbed = "embedding.embed"

// Executor runs a provider call under retry and circuit breaker policy.
type Executor interface {
	Execute(ctx context.Context, operation string, fn func(context.Context) error,
		classifier resilience.ErrorClassifier) error
}

// Options configures the instrumented embedder. Zero values disable each guard.
type Options struct {
	Limiter    *rate.Limiter
	Executor   Executor
	Classifier resilience.ErrorClassifier
}

// InstrumentedEmbedder wraps Embedder with client-side rate limiting, resilience and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	opts     Options
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with rate limiting and observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	opts Options, logger *zap.Logger,
) *InstrumentedEmbedder {
	if opts.Classifier == nil {
		opts.Classifier = resilience.TransientClassifier
	}
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		opts:     opts,
		logger:   logger,
	}
}

// Embed waits for a limiter slot, delegates to the inner embedder, and logs the outcome.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	if p.opts.Limiter != nil {
		if err := p.opts.Limiter.Wait(ctx); err != nil {
			p.logger.Warn("Embedding rate limit wait failed",
				zap.String("provider", p.provider),
				zap.Error(err),
			)
			return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
	}

	start := time.Now()

	var result domain.EmbeddingResult
	call := func(ctx context.Context) error {
		r, err := p.inner.Embed(ctx, text)
		if err != nil {
			return err //nolint:wrapcheck // classified by the executor, wrapped below
		}
		result = r
		return nil
	}

	var err error
	if p.opts.Executor != nil {
		err = p.opts.Executor.Execute(ctx, OpEmbed, call, p.opts.Classifier)
	} else {
		err = call(ctx)
	}

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if resilience.IsCircuitOpen(err) {
			return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}
