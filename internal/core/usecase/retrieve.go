package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/answerforge/rfp-engine/internal/core/domain"
	"github.com/answerforge/rfp-engine/internal/core/ports"
)

// HybridRetriever runs the fused dense+sparse search: embed the query both
// ways, issue two independent top-K store queries, fuse the ranked lists with
// RRF and truncate. An empty store yields an empty result, not an error.
type HybridRetriever struct {
	embedder     ports.Embedder
	store        ports.VectorStore
	rankConstant int
	logger       *slog.Logger
}

func NewHybridRetriever(embedder ports.Embedder, store ports.VectorStore, rankConstant int, logger *slog.Logger) *HybridRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &HybridRetriever{
		embedder:     embedder,
		store:        store,
		rankConstant: rankConstant,
		logger:       logger,
	}
}

func (r *HybridRetriever) Search(ctx context.Context, query string, topK int) ([]domain.RetrievedResult, error) {
	if topK < 1 {
		return nil, domain.WrapError(domain.ErrRetrieval, "hybrid search", fmt.Errorf("top_k must be >= 1, got %d", topK))
	}

	dense, err := r.embedder.EmbedDense(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "embed query dense", err)
	}
	sparse, err := r.embedder.EmbedSparse(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "embed query sparse", err)
	}

	denseHits, err := r.store.QueryDense(ctx, dense, topK)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "dense query", err)
	}
	sparseHits, err := r.store.QuerySparse(ctx, sparse, topK)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "sparse query", err)
	}

	fused := trimResults(fuseRankedRRF(denseHits, sparseHits, r.rankConstant), topK)
	r.logger.Debug("hybrid search done",
		"dense_hits", len(denseHits),
		"sparse_hits", len(sparseHits),
		"fused", len(fused),
	)
	return fused, nil
}
