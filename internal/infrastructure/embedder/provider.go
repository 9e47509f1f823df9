package embedder

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

// DenseClient is the remote dense-embedding backend.
type DenseClient interface {
	EmbedDense(ctx context.Context, text string) ([]float32, error)
}

// Provider is the embedding provider: remote dense vectors plus locally
// encoded sparse vectors from the same text. Dense calls go through a token
// bucket so bulk indexing cannot hammer the backend.
type Provider struct {
	dense   DenseClient
	sparse  *SparseEncoder
	limiter *rate.Limiter
}

// NewProvider creates a Provider. densePerSecond <= 0 disables rate limiting.
func NewProvider(dense DenseClient, densePerSecond float64, burst int) *Provider {
	var limiter *rate.Limiter
	if densePerSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Duration(float64(time.Second)/densePerSecond)), burst)
	}
	return &Provider{
		dense:   dense,
		sparse:  NewSparseEncoder(),
		limiter: limiter,
	}
}

func (p *Provider) EmbedDense(ctx context.Context, text string) ([]float32, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for embed slot: %w", err)
		}
	}
	vec, err := p.dense.EmbedDense(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) != domain.DenseVectorSize {
		return nil, fmt.Errorf("dense embedding size %d, want %d", len(vec), domain.DenseVectorSize)
	}
	return vec, nil
}

func (p *Provider) EmbedSparse(_ context.Context, text string) (domain.SparseVector, error) {
	return p.sparse.Encode(text), nil
}
