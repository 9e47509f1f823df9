package usecase

import (
	"sort"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

const defaultRRFRankConstant = 60

type fusedCandidate struct {
	result    domain.RetrievedResult
	score     float64
	firstSeen int
}

// fuseRankedRRF merges the dense and sparse ranked lists with Reciprocal Rank
// Fusion: each point scores the sum over the lists it appears in of
// 1/(k0+rank), rank 1-based. Points are deduplicated by id; ties keep
// first-seen input order (dense list first).
func fuseRankedRRF(dense, sparse []domain.RetrievedResult, rankConstant int) []domain.RetrievedResult {
	if rankConstant <= 0 {
		rankConstant = defaultRRFRankConstant
	}

	acc := make(map[string]fusedCandidate, len(dense)+len(sparse))
	seen := 0
	addList := func(results []domain.RetrievedResult) {
		for rank, r := range results {
			candidate, ok := acc[r.ID]
			if !ok {
				candidate = fusedCandidate{result: r, firstSeen: seen}
				seen++
			}
			candidate.score += 1.0 / float64(rankConstant+rank+1)
			acc[r.ID] = candidate
		}
	}

	addList(dense)
	addList(sparse)

	out := make([]fusedCandidate, 0, len(acc))
	for _, c := range acc {
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].firstSeen < out[j].firstSeen
	})

	fused := make([]domain.RetrievedResult, len(out))
	for i, c := range out {
		r := c.result
		r.Score = c.score
		fused[i] = r
	}
	return fused
}

func trimResults(results []domain.RetrievedResult, limit int) []domain.RetrievedResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return results[:limit]
}
