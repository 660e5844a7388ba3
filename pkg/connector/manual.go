package connector

import "context"

// ManualConnector backs manual single-URL enqueues (spec §3: source_kind
// "manual"). It never discovers on its own — the caller supplies the job
// directly — and offers no metadata/transcript enrichment beyond what the
// ingestion pipeline's own fetch stage does.
type ManualConnector struct{}

func (ManualConnector) Discover(ctx context.Context, watch WatchItem) ([]DiscoveryItem, error) {
	return nil, nil
}

func (ManualConnector) FetchMetadata(ctx context.Context, item DiscoveryItem) (Metadata, error) {
	return nil, nil
}

func (ManualConnector) FetchTranscript(ctx context.Context, item DiscoveryItem) (string, error) {
	return "", nil
}
