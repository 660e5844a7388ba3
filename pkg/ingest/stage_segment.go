package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/fathomhq/mediacore/pkg/queue"
	"github.com/fathomhq/mediacore/pkg/stepresult"
)

// stageSegmentation is stage 4: window the transcript into overlapping,
// token-aware chunks targeting config.Ingest.ChunkTokenBudget tokens per
// chunk with ChunkOverlap tokens of overlap between consecutive chunks
// (spec §4.8 stage 4). Tokens are approximated by whitespace splitting —
// good enough for windowing purposes without pulling in a real tokenizer.
func (p *Pipeline) stageSegmentation(ctx context.Context, job queue.Job, st *jobState) stepresult.Result {
	start := time.Now()

	if strings.TrimSpace(st.transcript) == "" {
		return finish("segmentation", start, stepresult.SkipWith("empty transcript"))
	}

	budget, overlap := p.chunkParams()
	tokens := strings.Fields(st.transcript)
	if len(tokens) == 0 {
		return finish("segmentation", start, stepresult.SkipWith("no tokens after splitting"))
	}

	var chunks []Chunk
	stride := budget - overlap
	if stride <= 0 {
		stride = budget
	}
	for offset := 0; offset < len(tokens); offset += stride {
		end := offset + budget
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, Chunk{
			Index:            len(chunks),
			Text:             strings.Join(tokens[offset:end], " "),
			StartTokenOffset: offset,
		})
		if end == len(tokens) {
			break
		}
	}

	st.chunks = chunks
	return finish("segmentation", start, stepresult.OkWithMetrics(nil, stepresult.Metrics{"chunk_count": float64(len(chunks)), "token_count": float64(len(tokens))}))
}

func (p *Pipeline) chunkParams() (budget, overlap int) {
	budget, overlap = 400, 40
	if p.cfg == nil {
		return budget, overlap
	}
	if p.cfg.Ingest.ChunkTokenBudget > 0 {
		budget = p.cfg.Ingest.ChunkTokenBudget
	}
	if p.cfg.Ingest.ChunkOverlap >= 0 {
		overlap = p.cfg.Ingest.ChunkOverlap
	}
	if overlap >= budget {
		overlap = budget / 4
	}
	return budget, overlap
}
