package imagegen

import (
	"context"
	"time"

	"github.com/marketforge/marketforge/pkg/models"
)

// Provider is one external generation backend tried by the fallback chain.
// Adapters are the only place network and API-key configuration appears; the
// chain treats every adapter uniformly through this two-outcome contract:
// a usable raw artifact, or nothing.
type Provider interface {
	Name() string
	TryGenerate(ctx context.Context, req models.GenerationRequest, timeout time.Duration) ([]byte, bool)
}
