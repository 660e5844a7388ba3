package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/queue"
	"github.com/fathomhq/mediacore/pkg/stepresult"
)

// stagePrivacyFilter is stage 5: apply PII/redaction rules to every chunk
// before any persistence (spec §4.8 stage 5). A chunk that trips a Block
// pattern (e.g. an SSN) hard-fails the job per §4.8's failure taxonomy
// ("privacy_blocked: hard fail, no retry") rather than being silently
// dropped — the caller re-enqueues with human review, it is not retried
// automatically.
func (p *Pipeline) stagePrivacyFilter(ctx context.Context, job queue.Job, st *jobState) stepresult.Result {
	start := time.Now()

	if p.filter == nil || len(st.chunks) == 0 {
		return finish("privacy_filter", start, stepresult.SkipWith("no filter configured or no chunks"))
	}

	var totalHits int
	for i, chunk := range st.chunks {
		result := p.filter.Apply(chunk.Text)
		if result.Blocked {
			return finish("privacy_filter", start, stepresult.Failf(config.ErrPrivacyBlocked,
				fmt.Errorf("ingest: chunk %d matched a blocking privacy pattern", chunk.Index)))
		}
		st.chunks[i].Text = result.Masked
		totalHits += len(result.Hits)
		st.filterHits = append(st.filterHits, result.Hits...)
	}

	return finish("privacy_filter", start, stepresult.OkWithMetrics(nil, stepresult.Metrics{"hits": float64(totalHits)}))
}
