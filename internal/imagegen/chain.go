package imagegen

import (
	"context"
	"log/slog"
	"time"

	"github.com/marketforge/marketforge/internal/metrics"
	"github.com/marketforge/marketforge/pkg/models"
)

const (
	// MethodLocalFallback marks artifacts produced by the local renderer
	MethodLocalFallback = "local_fallback"

	// DefaultProviderTimeout bounds a single network provider attempt
	DefaultProviderTimeout = 90 * time.Second
)

// Chain tries providers in priority order and guarantees an artifact: if
// every provider errors, times out, or returns nothing usable, the local
// renderer produces a deterministic placeholder. Callers therefore never
// branch on provider availability.
type Chain struct {
	providers []Provider
	renderer  *Renderer
	timeout   time.Duration
	collector *metrics.Collector
	logger    *slog.Logger
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithProviderTimeout overrides the per-provider attempt timeout
func WithProviderTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewChain creates a fallback chain over the given providers, in order
func NewChain(providers []Provider, renderer *Renderer, collector *metrics.Collector, logger *slog.Logger, opts ...ChainOption) *Chain {
	c := &Chain{
		providers: providers,
		renderer:  renderer,
		timeout:   DefaultProviderTimeout,
		collector: collector,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate produces one canonical artifact for the request. The result is
// success=false only when even the local renderer failed, which the renderer
// contract reserves for environment faults.
func (c *Chain) Generate(ctx context.Context, req models.GenerationRequest) models.GenerationResult {
	for _, p := range c.providers {
		if ctx.Err() != nil {
			break
		}

		raw, ok := p.TryGenerate(ctx, req, c.timeout)
		if !ok || len(raw) == 0 {
			c.collector.RecordProviderAttempt(p.Name(), "empty")
			c.logger.Info("Provider produced no artifact, trying next", "provider", p.Name())
			continue
		}

		b64, err := Normalize(raw)
		if err != nil {
			c.collector.RecordProviderAttempt(p.Name(), "error")
			c.logger.Warn("Provider artifact failed normalization, trying next",
				"provider", p.Name(), "error", err)
			continue
		}

		c.collector.RecordProviderAttempt(p.Name(), "success")
		c.logger.Info("Artifact generated", "provider", p.Name(), "subject", req.Subject)
		return models.GenerationResult{
			Success:     true,
			ImageBase64: b64,
			Method:      p.Name(),
			Width:       models.CanonicalImageSize,
			Height:      models.CanonicalImageSize,
			GeneratedAt: time.Now(),
		}
	}

	c.logger.Info("All providers exhausted, using local fallback renderer",
		"subject", req.Subject, "category", req.Category)
	c.collector.RecordFallbackRender(req.Category)

	b64, err := c.renderer.Render(req)
	if err != nil {
		// Only reachable under environment-level faults
		c.logger.Error("Local fallback renderer failed", "error", err)
		return models.GenerationResult{
			Success:     false,
			Method:      MethodLocalFallback,
			GeneratedAt: time.Now(),
			Error:       err.Error(),
		}
	}

	return models.GenerationResult{
		Success:     true,
		ImageBase64: b64,
		Method:      MethodLocalFallback,
		Width:       models.CanonicalImageSize,
		Height:      models.CanonicalImageSize,
		GeneratedAt: time.Now(),
	}
}
