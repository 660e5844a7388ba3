// Package connector implements the source-connector interface (spec §3,
// §4.8): discover new items from a watched source, optionally fetch
// metadata or a transcript hint. Connectors self-rate-limit and surface
// rate limiting via a typed error rather than blocking indefinitely.
package connector

import (
	"context"
	"errors"
	"time"

	"github.com/fathomhq/mediacore/pkg/queue"
)

// ErrRateLimited is the typed error connectors return when their own
// rate-limiting rejects a call, distinct from a transport failure so the
// scheduler can back off the watch item rather than the whole tick.
var ErrRateLimited = errors.New("connector: rate limited")

// WatchItem mirrors pkg/scheduler's watch item for connector calls without
// importing the scheduler package (keeps connector a leaf dependency).
type WatchItem struct {
	Tenant              string
	Workspace           string
	SourceKind          queue.SourceKind
	Handle              string
	LastSeenExternalID  string
}

// DiscoveryItem is one newly discovered unit of work from a source (spec §3).
type DiscoveryItem struct {
	ExternalID  string
	URL         string
	PublishedAt *time.Time
}

// Metadata is the loosely-typed bag fetch_metadata returns — titles,
// descriptions, durations vary enough by source that a fixed struct would
// just be a map with extra steps.
type Metadata map[string]any

// Connector is the source-connector interface every ingest source
// implements (spec §4.8, §3).
type Connector interface {
	// Discover returns items newer than watch.LastSeenExternalID, newest
	// first (the scheduler records the first item's id as the new last-seen
	// marker). Implementations must self-rate-limit and
	// return ErrRateLimited (wrapped) rather than blocking.
	Discover(ctx context.Context, watch WatchItem) ([]DiscoveryItem, error)

	// FetchMetadata optionally enriches one discovered item. Returns
	// (nil, nil) if the connector has no metadata to offer.
	FetchMetadata(ctx context.Context, item DiscoveryItem) (Metadata, error)

	// FetchTranscript optionally returns a cached/platform-provided
	// transcript hint, skipping ASR entirely when present. Returns ("",
	// nil) if none is available.
	FetchTranscript(ctx context.Context, item DiscoveryItem) (string, error)
}
