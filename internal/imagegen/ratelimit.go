package imagegen

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterPool manages per-provider rate limiters
type RateLimiterPool struct {
	limiters map[string]*rate.Limiter
	rates    map[string]int
	mu       sync.Mutex
}

// NewRateLimiterPool creates a new rate limiter pool
func NewRateLimiterPool() *RateLimiterPool {
	return &RateLimiterPool{
		limiters: make(map[string]*rate.Limiter),
		rates:    make(map[string]int),
	}
}

// GetOrCreate returns an existing rate limiter or creates a new one. If a
// limiter already exists with a different rate, the existing rate wins.
func (p *RateLimiterPool) GetOrCreate(provider string, requestsPerMinute int) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, exists := p.limiters[provider]; exists {
		if existing, ok := p.rates[provider]; ok && existing != requestsPerMinute {
			slog.Warn("Rate limiter already exists with different rate, using existing rate",
				"provider", provider,
				"existing_rpm", existing,
				"requested_rpm", requestsPerMinute)
		}
		return limiter
	}

	rps := float64(requestsPerMinute) / 60.0
	burst := max(2, requestsPerMinute/5)
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	p.limiters[provider] = limiter
	p.rates[provider] = requestsPerMinute

	slog.Debug("Created rate limiter", "provider", provider, "rpm", requestsPerMinute, "burst", burst)
	return limiter
}

// Wait blocks until the provider's limiter allows the next request
func (p *RateLimiterPool) Wait(ctx context.Context, provider string, requestsPerMinute int) error {
	return p.GetOrCreate(provider, requestsPerMinute).Wait(ctx)
}
