// Package intent extracts structured shopping intent from a chat message.
package intent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/logger"
	"github.com/kailas-cloud/shopdex/internal/metrics"
	"github.com/kailas-cloud/shopdex/internal/resilience"
)

// OpComplete is the resilience operation name for intent completions.
const OpComplete = "chat.complete"

// Executor runs a provider call under retry and circuit breaker policy.
type Executor interface {
	Execute(ctx context.Context, operation string, fn func(context.Context) error,
		classifier resilience.ErrorClassifier) error
}

// Service turns a free-text message into an Intent with a chat model.
type Service struct {
	completer  domain.Completer
	exec       Executor
	classifier resilience.ErrorClassifier
}

// New creates an intent extractor. completer may be nil, in which case every message
// moves on to search with no facets. exec may be nil.
func New(completer domain.Completer, exec Executor, classifier resilience.ErrorClassifier) *Service {
	if classifier == nil {
		classifier = resilience.TransientClassifier
	}
	return &Service{completer: completer, exec: exec, classifier: classifier}
}

// Enabled reports whether a chat model is configured.
func (s *Service) Enabled() bool { return s.completer != nil }

// Extract asks the chat model for the intent behind message.
func (s *Service) Extract(ctx context.Context, message string) (Intent, error) {
	if s.completer == nil {
		return Intent{MoveOn: true}, nil
	}

	messages := []domain.Message{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: message},
	}

	var completion domain.Completion
	call := func(ctx context.Context) error {
		c, err := s.completer.Complete(ctx, messages)
		if err != nil {
			return err //nolint:wrapcheck // classified by the executor, wrapped below
		}
		completion = c
		return nil
	}

	var err error
	if s.exec != nil {
		err = s.exec.Execute(ctx, OpComplete, call, s.classifier)
	} else {
		err = call(ctx)
	}
	if err != nil {
		metrics.IntentExtractionsTotal.WithLabelValues("error").Inc()
		return Intent{}, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}

	if strings.TrimSpace(completion.Content) == "" {
		metrics.IntentExtractionsTotal.WithLabelValues("error").Inc()
		return Intent{}, fmt.Errorf("%w: empty completion", domain.ErrExtractionFailed)
	}

	in := Parse(completion.Content)
	outcome := "ok"
	if !in.MoveOn {
		outcome = "follow_up"
	}
	metrics.IntentExtractionsTotal.WithLabelValues(outcome).Inc()

	logger.FromContext(ctx).Debug("Intent extracted",
		zap.Bool("move_on", in.MoveOn),
		zap.String("category", in.Facets.Category.String()),
		zap.String("sub_category", in.Facets.SubCategory.String()),
		zap.String("gender", in.Facets.Gender.String()),
		zap.String("colour", in.Facets.Colour.String()),
		zap.Int("prompt_tokens", completion.PromptTokens),
	)
	return in, nil
}
