package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fathomhq/mediacore/pkg/bandit"
	"github.com/fathomhq/mediacore/pkg/connector"
	"github.com/fathomhq/mediacore/pkg/queue"
)

// ConnectorRegistry resolves the right Connector for a source kind.
type ConnectorRegistry interface {
	Connector(kind queue.SourceKind) (connector.Connector, bool)
}

// JobEnqueuer is the subset of queue.Store the scheduler needs, narrowed to
// an interface so discovery/pacing logic can be tested without a live
// Postgres connection.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, jobs []queue.Job) error
}

// StaticConnectorRegistry is a fixed, config-driven ConnectorRegistry.
type StaticConnectorRegistry map[queue.SourceKind]connector.Connector

func (r StaticConnectorRegistry) Connector(kind queue.SourceKind) (connector.Connector, bool) {
	c, ok := r[kind]
	return c, ok
}

// Scheduler runs periodic ticks: discover due watchlists, bulk-enqueue
// derived jobs, and re-pace each watch's next poll time via Thompson
// sampling over {fast, normal, slow} (spec §4.7).
type Scheduler struct {
	watches    WatchStore
	jobs       JobEnqueuer
	connectors ConnectorRegistry
	policy     bandit.Policy
	batchSize  int
}

// NewScheduler builds a Scheduler. policy is typically bandit.NewThompson
// with RewardBounded (new-items-found is a bounded 0/1-ish signal).
func NewScheduler(watches WatchStore, jobs JobEnqueuer, connectors ConnectorRegistry, policy bandit.Policy, batchSize int) *Scheduler {
	return &Scheduler{watches: watches, jobs: jobs, connectors: connectors, policy: policy, batchSize: batchSize}
}

// Tick runs one scheduling pass (spec §4.7 steps 1-5).
func (s *Scheduler) Tick(ctx context.Context) error {
	due, err := s.watches.DueWatchlists(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("scheduler: load due watchlists: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	var allJobs []queue.Job
	var updates []WatchUpdate
	armsByKey := make(map[string]map[string]bandit.ArmState)

	for _, watch := range due {
		jobs, newLastSeen, found, discoverErr := s.discover(ctx, watch)
		if discoverErr != nil {
			slog.Error("scheduler: discover failed", "tenant", watch.Tenant, "workspace", watch.Workspace,
				"source_kind", watch.SourceKind, "error", discoverErr)
		}
		allJobs = append(allJobs, jobs...)

		arms, err := s.watches.LoadArms(ctx, watch.armKey())
		if err != nil {
			arms = make(map[string]bandit.ArmState)
		}
		for _, pace := range []PollPace{PaceFast, PaceNormal, PaceSlow} {
			if _, ok := arms[string(pace)]; !ok {
				arms[string(pace)] = bandit.ArmState{ArmID: string(pace)}
			}
		}

		reward := pollReward(found, discoverErr)
		selected := s.policy.Select(arms, nil)
		if selected == "" {
			selected = string(PaceNormal)
		}
		updatedArm := s.policy.Update(arms, selected, reward, nil)
		arms[selected] = updatedArm
		armsByKey[watch.armKey()] = arms

		interval := PaceIntervals[PollPace(selected)]
		if interval <= 0 {
			interval = PaceIntervals[PaceNormal]
		}

		lastSeen := watch.LastSeenExternalID
		if newLastSeen != "" {
			lastSeen = newLastSeen
		}
		updates = append(updates, WatchUpdate{
			Tenant:             watch.Tenant,
			Workspace:          watch.Workspace,
			Handle:             watch.Handle,
			LastSeenExternalID: lastSeen,
			NextPollAt:         time.Now().UTC().Add(interval),
			PollIntervalS:      int(interval.Seconds()),
		})
	}

	if len(allJobs) > 0 {
		if err := s.jobs.Enqueue(ctx, allJobs); err != nil {
			return fmt.Errorf("scheduler: bulk enqueue: %w", err)
		}
	}
	if err := s.watches.Commit(ctx, updates, armsByKey); err != nil {
		return fmt.Errorf("scheduler: bulk commit watch state: %w", err)
	}
	return nil
}

// discover invokes the watch's connector and translates new DiscoveryItems
// into IngestJobs. newLastSeen is the external id of the newest item found
// (connectors return newest-first), empty if nothing new was found.
func (s *Scheduler) discover(ctx context.Context, watch WatchItem) (jobs []queue.Job, newLastSeen string, found int, err error) {
	conn, ok := s.connectors.Connector(watch.SourceKind)
	if !ok {
		return nil, "", 0, fmt.Errorf("scheduler: no connector registered for source kind %q", watch.SourceKind)
	}

	items, err := conn.Discover(ctx, watch.toConnectorWatch())
	if err != nil {
		if errors.Is(err, connector.ErrRateLimited) {
			return nil, "", 0, err
		}
		return nil, "", 0, err
	}
	if len(items) == 0 {
		return nil, "", 0, nil
	}

	newLastSeen = items[0].ExternalID // newest-first per connector.Discover's contract
	for _, item := range items {
		jobs = append(jobs, queue.Job{
			JobID:      queue.DeterministicID(watch.Tenant, watch.Workspace, watch.SourceKind, item.ExternalID),
			Tenant:     watch.Tenant,
			Workspace:  watch.Workspace,
			SourceKind: watch.SourceKind,
			ExternalID: item.ExternalID,
			URL:        item.URL,
			Priority:   0,
		})
	}
	return jobs, newLastSeen, len(items), nil
}

// pollReward implements spec §4.7's pacing signal: reward = signal(new
// items found)/(poll cost). Poll cost is treated as a constant unit cost per
// tick, so the reward reduces to a found-vs-not-found bounded signal scaled
// down slightly when the connector errored (a failed poll still cost
// something but produced no signal).
func pollReward(found int, err error) float64 {
	if err != nil {
		return 0
	}
	if found > 0 {
		return 1
	}
	return 0.1 // a clean empty poll is mildly informative, not worthless
}
