package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/runloop-dev/runloop/llm"
)

// loggingAdapter wraps a provider adapter and logs every call at debug
// level. It satisfies llm.Closer when the wrapped adapter does.
type loggingAdapter struct {
	inner llm.ProviderAdapter
}

func withCallLogging(inner llm.ProviderAdapter) llm.ProviderAdapter {
	return &loggingAdapter{inner: inner}
}

func (a *loggingAdapter) Name() string { return a.inner.Name() }

func (a *loggingAdapter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	start := time.Now()
	resp, err := a.inner.Complete(ctx, req)
	attrs := []any{
		"provider", a.inner.Name(),
		"model", req.Model,
		"messages", len(req.Messages),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		slog.Debug("provider call failed", append(attrs, "error", err)...)
		return nil, err
	}
	slog.Debug("provider call",
		append(attrs, "finish_reason", resp.FinishReason, "total_tokens", resp.Usage.TotalTokens)...)
	return resp, nil
}

func (a *loggingAdapter) Stream(ctx context.Context, req llm.Request) (<-chan llm.StreamEvent, error) {
	slog.Debug("provider stream", "provider", a.inner.Name(), "model", req.Model, "messages", len(req.Messages))
	return a.inner.Stream(ctx, req)
}

func (a *loggingAdapter) Close() error {
	if c, ok := a.inner.(llm.Closer); ok {
		return c.Close()
	}
	return nil
}
