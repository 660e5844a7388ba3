// Package scheduler implements the watchlist-driven discovery + RL-paced
// polling loop (spec §4.7 "Scheduler tick"): on each tick, due watchlists
// are discovered via their source connector, derived jobs bulk-enqueued,
// and the next poll time re-paced by a Thompson-sampling bandit over
// {fast, normal, slow} polling arms.
package scheduler

import (
	"context"
	"time"

	"github.com/fathomhq/mediacore/pkg/bandit"
	"github.com/fathomhq/mediacore/pkg/connector"
	"github.com/fathomhq/mediacore/pkg/queue"
)

// PollPace is one of the three RL-paced polling arms spec §4.7 names.
type PollPace string

const (
	PaceFast   PollPace = "fast"
	PaceNormal PollPace = "normal"
	PaceSlow   PollPace = "slow"
)

// PaceIntervals maps each pace arm to its poll interval. Tunable, but kept
// as a package-level default so Scheduler doesn't need a config dependency
// just for this.
var PaceIntervals = map[PollPace]time.Duration{
	PaceFast:   2 * time.Minute,
	PaceNormal: 15 * time.Minute,
	PaceSlow:   60 * time.Minute,
}

// WatchItem is spec §3's WatchItem record, mutated only by scheduler ticks.
type WatchItem struct {
	Tenant             string
	Workspace          string
	SourceKind         queue.SourceKind
	Handle             string
	LastSeenExternalID string
	PollIntervalS      int
	NextPollAt         time.Time
}

func (w WatchItem) toConnectorWatch() connector.WatchItem {
	return connector.WatchItem{
		Tenant:             w.Tenant,
		Workspace:          w.Workspace,
		SourceKind:         w.SourceKind,
		Handle:             w.Handle,
		LastSeenExternalID: w.LastSeenExternalID,
	}
}

// armKey scopes a watch item's bandit arm state per (tenant, workspace,
// handle) so one watch's pacing never leaks into another's.
func (w WatchItem) armKey() string {
	return w.Tenant + ":" + w.Workspace + ":" + w.Handle
}

// WatchStore persists WatchItem rows and each watch's paced-polling arm
// state (spec §3 ingest_state / watchlists tables).
type WatchStore interface {
	DueWatchlists(ctx context.Context, limit int) ([]WatchItem, error)
	LoadArms(ctx context.Context, armKey string) (map[string]bandit.ArmState, error)
	Commit(ctx context.Context, updates []WatchUpdate, arms map[string]map[string]bandit.ArmState) error
}

// WatchUpdate is one watch item's new discovery/pacing state after a tick,
// applied via a single bulk-commit transaction (spec §4.7 step 5).
type WatchUpdate struct {
	Tenant             string
	Workspace          string
	Handle             string
	LastSeenExternalID string
	NextPollAt         time.Time
	PollIntervalS      int
}
