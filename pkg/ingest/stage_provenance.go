package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/queue"
	"github.com/fathomhq/mediacore/pkg/stepresult"
)

// stageProvenanceWrite is stage 9: append one provenance row summarizing
// this job's completed run (spec §4.8 stage 9). A single summary row is
// written per job rather than per-stage — every intermediate stage already
// emits its own StepResult/metrics before returning, so the provenance
// trail's job here is the durable, queryable-by-job_id audit record, not a
// duplicate of the metrics stream.
func (p *Pipeline) stageProvenanceWrite(ctx context.Context, job queue.Job, st *jobState) stepresult.Result {
	start := time.Now()

	if p.provenance == nil {
		return finish("provenance_write", start, stepresult.Failf(config.ErrConfigInvalid, fmt.Errorf("ingest: no provenance store configured")))
	}

	hash := summaryHash(st)
	if err := p.provenance.Write(ctx, job.Tenant, job.Workspace, job.JobID, "ingest_complete", hash, time.Now().UTC()); err != nil {
		return finish("provenance_write", start, stepresult.Failf(config.ErrStorageConflict, err))
	}

	return finish("provenance_write", start, stepresult.OkWithMetrics(nil, stepresult.Metrics{"chunk_count": float64(len(st.chunks))}))
}

func summaryHash(st *jobState) string {
	h := sha256.New()
	h.Write([]byte(st.transcript))
	fmt.Fprintf(h, "|chunks=%d|degradations=%d", len(st.chunks), len(st.degradations))
	return hex.EncodeToString(h.Sum(nil))
}
