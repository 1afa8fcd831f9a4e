package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/newsletter-digest/app/metrics"
)

// Chain tries providers in priority order until one returns an answer the
// caller accepts.
type Chain struct {
	providers []Provider
	timeout   time.Duration
}

func NewChain(timeout time.Duration, providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		timeout:   timeout,
	}
}

func (c *Chain) Providers() []Provider {
	return c.providers
}

// Complete returns the name of the provider that answered. decode is applied
// to every answer; a decode error counts as a provider failure and moves on to
// the next provider. When every provider fails the returned error wraps
// ErrSummarizationUnavailable together with each provider's failure.
func (c *Chain) Complete(ctx context.Context, systemPrompt, userPrompt string, decode func(text string) error) (string, error) {
	var errs []error

	for _, provider := range c.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		start := time.Now()
		err := c.try(ctx, provider, systemPrompt, userPrompt, decode)
		duration := time.Since(start)

		if err == nil {
			metrics.RecordProviderCall(provider.Name(), "success", duration)
			slog.Debug("AI provider succeeded", "provider", provider.Name(), "duration", duration)
			return provider.Name(), nil
		}

		metrics.RecordProviderCall(provider.Name(), "failure", duration)
		slog.Warn("AI provider failed, falling back", "provider", provider.Name(), "duration", duration, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", provider.Name(), err))
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no AI providers configured"))
	}

	return "", fmt.Errorf("%w: %w", ErrSummarizationUnavailable, errors.Join(errs...))
}

func (c *Chain) try(ctx context.Context, provider Provider, systemPrompt, userPrompt string, decode func(string) error) error {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := provider.Complete(callCtx, systemPrompt, userPrompt)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("timed out after %s: %w", c.timeout, err)
		}
		return err
	}

	if decode != nil {
		if err := decode(text); err != nil {
			return fmt.Errorf("malformed response: %w", err)
		}
	}

	return nil
}
