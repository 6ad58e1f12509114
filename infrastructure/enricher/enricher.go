// Package enricher generates semantic enrichments through an LLM provider
// using a bounded worker pool.
package enricher

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/repolens/repolens/infrastructure/provider"
)

const (
	defaultParallelism = 10
	defaultCallTimeout = 60 * time.Second
)

// Request is a single generation request. ID correlates the response back
// to its target; responses arrive in completion order, not request order.
type Request struct {
	ID           string
	SystemPrompt string
	UserPrompt   string
}

// Response carries the generated text for a request. Content is empty when
// generation failed; callers skip empty responses rather than aborting the
// batch.
type Response struct {
	ID      string
	Content string
}

// Pool runs enrichment requests through a TextGenerator with bounded
// parallelism. Retries and backoff live in the provider.
type Pool struct {
	generator   provider.TextGenerator
	parallelism int
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewPool creates a pool with the given parallelism. Non-positive
// parallelism falls back to the default.
func NewPool(generator provider.TextGenerator, parallelism int, logger *slog.Logger) *Pool {
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		generator:   generator,
		parallelism: parallelism,
		callTimeout: defaultCallTimeout,
		logger:      logger,
	}
}

// WithCallTimeout overrides the per-request timeout.
func (p *Pool) WithCallTimeout(d time.Duration) *Pool {
	p.callTimeout = d
	return p
}

// Stream executes requests on the worker pool and emits responses as they
// complete. The channel is closed once all requests are done or the context
// is cancelled. Requests with an empty user prompt are answered with an
// empty response without touching the provider.
func (p *Pool) Stream(ctx context.Context, requests []Request) <-chan Response {
	out := make(chan Response, 2*p.parallelism)
	if len(requests) == 0 {
		close(out)
		return out
	}

	go func() {
		defer close(out)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.parallelism)

		for _, req := range requests {
			req := req
			g.Go(func() error {
				resp := p.process(gctx, req)
				select {
				case out <- resp:
				case <-gctx.Done():
					return gctx.Err()
				}
				return nil
			})
		}

		// Workers only fail on cancellation; per-request failures come
		// back as empty responses.
		_ = g.Wait()
	}()

	return out
}

// EnrichAll runs requests through the pool and collects all responses.
func (p *Pool) EnrichAll(ctx context.Context, requests []Request) ([]Response, error) {
	responses := make([]Response, 0, len(requests))
	for resp := range p.Stream(ctx, requests) {
		responses = append(responses, resp)
	}
	if err := ctx.Err(); err != nil {
		return responses, err
	}
	return responses, nil
}

func (p *Pool) process(ctx context.Context, req Request) Response {
	if req.UserPrompt == "" {
		return Response{ID: req.ID}
	}

	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	content, err := p.generator.Complete(callCtx, req.SystemPrompt, req.UserPrompt)
	if err != nil {
		p.logger.Warn("enrichment generation failed",
			slog.String("request_id", req.ID),
			slog.String("error", err.Error()),
		)
		return Response{ID: req.ID}
	}

	return Response{ID: req.ID, Content: cleanThinkingTags(content)}
}

// cleanThinkingTags strips <think>...</think> blocks that some models emit
// for chain-of-thought reasoning.
func cleanThinkingTags(text string) string {
	const open, closeTag = "<think>", "</think>"
	result := text
	for {
		start := strings.Index(result, open)
		if start == -1 {
			break
		}
		// The closing tag must follow the opening one; a stray </think>
		// earlier in the text is plain content.
		rest := result[start+len(open):]
		end := strings.Index(rest, closeTag)
		if end == -1 {
			result = result[:start] + rest
			continue
		}
		result = result[:start] + rest[end+len(closeTag):]
	}
	return strings.TrimSpace(result)
}
