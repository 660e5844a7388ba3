package ingest

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/connector"
	"github.com/fathomhq/mediacore/pkg/masking"
	"github.com/fathomhq/mediacore/pkg/memory"
	"github.com/fathomhq/mediacore/pkg/queue"
)

type fakeConnector struct {
	transcript string
	err        error
}

func (f fakeConnector) Discover(ctx context.Context, watch connector.WatchItem) ([]connector.DiscoveryItem, error) {
	return nil, nil
}
func (f fakeConnector) FetchMetadata(ctx context.Context, item connector.DiscoveryItem) (connector.Metadata, error) {
	return connector.Metadata{"title": "test"}, f.err
}
func (f fakeConnector) FetchTranscript(ctx context.Context, item connector.DiscoveryItem) (string, error) {
	if f.transcript == "" {
		return "", context.DeadlineExceeded
	}
	return f.transcript, nil
}

type fakeRegistry struct{ conn connector.Connector }

func (r fakeRegistry) Connector(kind queue.SourceKind) (connector.Connector, bool) {
	return r.conn, true
}

// fakeEmbedder returns a deterministic vector derived from the text's
// sha256 sum, so identical text always embeds identically and distinct text
// (almost certainly) embeds distinctly — good enough for dedup tests.
type fakeEmbedder struct{}

func (fakeEmbedder) Model() string { return "fake-embed" }
func (fakeEmbedder) Embed(ctx context.Context, text, model string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 8)
	for i := range vec {
		vec[i] = float32(sum[i]) / 255
	}
	return vec, nil
}

type fakeProvenanceStore struct {
	writes int
}

func (f *fakeProvenanceStore) Write(ctx context.Context, tenant, workspace, jobID, stage, summaryHash string, ts time.Time) error {
	f.writes++
	return nil
}

func testJob() queue.Job {
	return queue.Job{JobID: "job-1", Tenant: "t1", Workspace: "w1", SourceKind: queue.SourceRSS, ExternalID: "ext-1", URL: "https://example.com/1"}
}

func TestRunStoresChunksForACleanTranscript(t *testing.T) {
	adapter := memory.NewInMemoryAdapter()
	mem := memory.NewStore(adapter, fakeEmbedder{}, nil)
	prov := &fakeProvenanceStore{}
	filter := masking.NewFilter(config.MaskingConfig{Enabled: true, PatternGroups: []string{"pii", "secrets"}})

	pipeline := NewPipeline(fakeRegistry{conn: fakeConnector{transcript: "hello world this is a clean transcript about technology and software"}},
		nil, nil, filter, fakeEmbedder{}, mem, prov, nil)

	res := pipeline.Run(context.Background(), testJob())
	if !res.IsOK() {
		t.Fatalf("expected Run to succeed, got %+v", res)
	}
	if prov.writes != 1 {
		t.Fatalf("expected exactly one provenance write, got %d", prov.writes)
	}
}

func TestRunHardFailsOnBlockedPII(t *testing.T) {
	adapter := memory.NewInMemoryAdapter()
	mem := memory.NewStore(adapter, fakeEmbedder{}, nil)
	prov := &fakeProvenanceStore{}
	filter := masking.NewFilter(config.MaskingConfig{Enabled: true, PatternGroups: []string{"pii", "secrets"}})

	pipeline := NewPipeline(fakeRegistry{conn: fakeConnector{transcript: "call me back, my ssn is 123-45-6789"}},
		nil, nil, filter, fakeEmbedder{}, mem, prov, nil)

	res := pipeline.Run(context.Background(), testJob())
	if !res.IsFail() {
		t.Fatalf("expected Run to hard fail on a blocked PII pattern, got %+v", res)
	}
	if res.ErrorKind != config.ErrPrivacyBlocked {
		t.Fatalf("expected error kind privacy_blocked, got %q", res.ErrorKind)
	}
	if prov.writes != 0 {
		t.Fatalf("expected no provenance write on a hard-failed job")
	}
}

func TestDegradeToPlaintextStampsOneLinePerSecond(t *testing.T) {
	out := degradeToPlaintext([]byte("first line\nsecond line\n"))
	if want := "[00:00] first line\n[00:01] second line\n"; out != want {
		t.Fatalf("expected one timestamped line per second %q, got %q", want, out)
	}
}

func TestCosineSimilarityDetectsNearDuplicateChunks(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	c := []float32{0, 1, 0}
	if cosineSimilarity(a, b) < 0.99 {
		t.Fatalf("expected identical vectors to have similarity ~1")
	}
	if cosineSimilarity(a, c) > 0.5 {
		t.Fatalf("expected orthogonal vectors to have low similarity")
	}
}

func TestExecuteImplementsQueueExecutor(t *testing.T) {
	adapter := memory.NewInMemoryAdapter()
	mem := memory.NewStore(adapter, fakeEmbedder{}, nil)
	prov := &fakeProvenanceStore{}
	filter := masking.NewFilter(config.MaskingConfig{Enabled: true})

	pipeline := NewPipeline(fakeRegistry{conn: fakeConnector{transcript: "clean text here"}},
		nil, nil, filter, fakeEmbedder{}, mem, prov, nil)

	var _ queue.Executor = pipeline
	result := pipeline.Execute(context.Background(), testJob())
	if result.Status != queue.StatusDone {
		t.Fatalf("expected StatusDone, got %v (err=%v)", result.Status, result.Error)
	}
}
