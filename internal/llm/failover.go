package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/soyeahso/prodbot/internal/logging"
)

// FailoverClient tries providers in order, moving on only for errors that
// another provider might not hit (auth, rate limits, outages).
type FailoverClient struct {
	registry  *Registry
	primary   string
	fallbacks []string
	log       *logging.Logger
}

// NewFailoverClient creates a client that resolves primary first and then
// each fallback through registry.
func NewFailoverClient(registry *Registry, primary string, fallbacks []string, log *logging.Logger) *FailoverClient {
	return &FailoverClient{
		registry:  registry,
		primary:   primary,
		fallbacks: fallbacks,
		log:       log.Sub("failover"),
	}
}

func (f *FailoverClient) Name() string { return "failover" }

// Complete tries the primary provider, falling back on retryable errors.
// The request's Model is left untouched so each provider keeps its own
// default.
func (f *FailoverClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	refs := append([]string{f.primary}, f.fallbacks...)

	var lastErr error
	for _, ref := range refs {
		client, err := f.registry.Resolve(ref)
		if err != nil {
			f.log.Debug().Str("provider", ref).Err(err).Msg("no client for provider, skipping")
			lastErr = err
			continue
		}

		resp, err := client.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) {
			return nil, err
		}
		f.log.Warn().Str("provider", ref).Err(err).Msg("retryable error, trying next provider")
	}

	return nil, lastErr
}

// IsRetryable reports whether err suggests trying another provider.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Code {
		case 401, 403, 429, 500, 502, 503, 529:
			return true
		}
	}

	msg := err.Error()
	for _, s := range []string{"overloaded", "rate limit", "capacity", "timeout", "RESOURCE_EXHAUSTED", "UNAVAILABLE"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
