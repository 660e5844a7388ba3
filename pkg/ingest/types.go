// Package ingest implements the nine-stage ingestion pipeline (C8, spec
// §4.8): fetch metadata/transcript hint, media download, transcription,
// segmentation, privacy filter, topic/claim extraction, embedding & dedup,
// memory upsert, provenance write. Grounded on the teacher's chain-of-stages
// executor shape (pkg/queue/executor.go's RealSessionExecutor.Execute loop,
// deleted from pkg/queue once this package took over that role — see
// DESIGN.md) generalized from LLM-agent stages to media-ingestion stages.
package ingest

import (
	"time"

	"github.com/fathomhq/mediacore/pkg/connector"
	"github.com/fathomhq/mediacore/pkg/masking"
	"github.com/fathomhq/mediacore/pkg/queue"
)

// ConnectorRegistry resolves the right source connector for a job, mirroring
// pkg/scheduler.ConnectorRegistry (kept as a separate type here so ingest
// doesn't depend on the scheduler package for one interface).
type ConnectorRegistry interface {
	Connector(kind queue.SourceKind) (connector.Connector, bool)
}

// Chunk is one windowed segment of a transcript (stage 4).
type Chunk struct {
	Index            int
	Text             string
	StartTokenOffset int
}

// ExtractedChunk augments a Chunk with stage 6's naive extraction output.
type ExtractedChunk struct {
	Chunk
	Hashtags []string
	Keywords []string
	Topics   []string
}

// EmbeddedChunk augments an ExtractedChunk with stage 7's embedding and
// intra-job dedup verdict.
type EmbeddedChunk struct {
	ExtractedChunk
	Vector    []float32
	Duplicate bool
}

// degradation is spec §7's "every degradation emits a degradation event with
// {component, reason, tenant}".
type degradation struct {
	Stage  string
	Reason string
}

// jobState carries data produced by one stage into the next, scoped to a
// single job's pipeline run.
type jobState struct {
	metadata      connector.Metadata
	transcriptHint string

	mediaBytes       []byte
	mediaContentType string

	transcript   string
	degradations []degradation

	chunks []Chunk

	filterHits []masking.Hit

	extracted []ExtractedChunk
	embedded  []EmbeddedChunk

	startedAt time.Time
}
