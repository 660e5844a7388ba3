package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/memory"
	"github.com/fathomhq/mediacore/pkg/queue"
	"github.com/fathomhq/mediacore/pkg/stepresult"
	"github.com/fathomhq/mediacore/pkg/tenant"
)

// stageMemoryUpsert is stage 8: C4.store every non-duplicate chunk into the
// job's tenant namespace (spec §4.8 stage 8). Per spec §5, memory upserts
// for a single job are applied atomically per item — a failure partway
// through leaves earlier chunks durably stored, which is acceptable (each
// chunk's item id is derived from the job id and chunk index, so a retried
// job re-upserts in place harmlessly).
func (p *Pipeline) stageMemoryUpsert(ctx context.Context, job queue.Job, st *jobState) stepresult.Result {
	start := time.Now()

	if p.memory == nil {
		return finish("memory_upsert", start, stepresult.Failf(config.ErrConfigInvalid, fmt.Errorf("ingest: no memory store configured")))
	}
	if len(st.embedded) == 0 {
		return finish("memory_upsert", start, stepresult.SkipWith("no embedded chunks"))
	}

	scope := tenant.Scope{Tenant: job.Tenant, Workspace: job.Workspace}
	scopedCtx := tenant.With(ctx, scope)
	namespace := scope.Namespace(string(memory.KindTranscriptChunk))

	stored := 0
	for _, ec := range st.embedded {
		if ec.Duplicate {
			continue
		}
		item := memory.Item{
			ItemID:    chunkItemID(job, ec.Index),
			Namespace: namespace,
			Kind:      memory.KindTranscriptChunk,
			Text:      ec.Text,
			Vector:    ec.Vector,
			Metadata: memory.Metadata{
				SourceURL: job.URL,
				Tenant:    job.Tenant,
				Workspace: job.Workspace,
			},
		}
		if err := p.memory.Store(scopedCtx, item); err != nil {
			return finish("memory_upsert", start, stepresult.Failf(config.ErrStorageConflict, fmt.Errorf("ingest: upsert chunk %d: %w", ec.Index, err)))
		}
		stored++
	}

	return finish("memory_upsert", start, stepresult.OkWithMetrics(nil, stepresult.Metrics{"stored": float64(stored)}))
}

// chunkItemID derives a stable, content-independent item id so re-running
// the same job (e.g. after a retry) upserts in place rather than duplicating.
func chunkItemID(job queue.Job, chunkIndex int) string {
	h := sha256.New()
	h.Write([]byte(job.JobID))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", chunkIndex)
	return hex.EncodeToString(h.Sum(nil))
}
