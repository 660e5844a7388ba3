package ingest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/queue"
	"github.com/fathomhq/mediacore/pkg/stepresult"
)

// stageEmbeddingDedup is stage 7: embed every chunk (through the shared
// EmbeddingCache so repeat content across jobs is free) and suppress
// near-duplicates within this job via a cosine-similarity threshold
// (spec §4.8 stage 7).
func (p *Pipeline) stageEmbeddingDedup(ctx context.Context, job queue.Job, st *jobState) stepresult.Result {
	start := time.Now()

	if p.embedder == nil {
		return finish("embedding_dedup", start, stepresult.Failf(config.ErrConfigInvalid, fmt.Errorf("ingest: no embedder configured")))
	}
	if len(st.extracted) == 0 {
		return finish("embedding_dedup", start, stepresult.SkipWith("no extracted chunks"))
	}

	threshold := p.dedupThreshold()
	embedded := make([]EmbeddedChunk, 0, len(st.extracted))
	var kept [][]float32

	for _, ec := range st.extracted {
		vec, err := p.embedder.Embed(ctx, ec.Text, p.embedder.Model())
		if err != nil {
			return finish("embedding_dedup", start, stepresult.Failf(config.ErrBackendUnavailable, fmt.Errorf("ingest: embed chunk %d: %w", ec.Index, err)))
		}
		dup := isNearDuplicate(vec, kept, threshold)
		if !dup {
			kept = append(kept, vec)
		}
		embedded = append(embedded, EmbeddedChunk{ExtractedChunk: ec, Vector: vec, Duplicate: dup})
	}

	st.embedded = embedded
	dupCount := len(embedded) - len(kept)
	return finish("embedding_dedup", start, stepresult.OkWithMetrics(nil, stepresult.Metrics{
		"chunk_count":     float64(len(embedded)),
		"duplicate_count": float64(dupCount),
	}))
}

func (p *Pipeline) dedupThreshold() float64 {
	if p.cfg != nil && p.cfg.Memory.DedupCosineThresh > 0 {
		return p.cfg.Memory.DedupCosineThresh
	}
	return 0.97
}

func isNearDuplicate(vec []float32, kept [][]float32, threshold float64) bool {
	for _, k := range kept {
		if cosineSimilarity(vec, k) >= threshold {
			return true
		}
	}
	return false
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
