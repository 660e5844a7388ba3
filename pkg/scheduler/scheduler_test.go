package scheduler

import (
	"context"
	"testing"

	"github.com/fathomhq/mediacore/pkg/bandit"
	"github.com/fathomhq/mediacore/pkg/connector"
	"github.com/fathomhq/mediacore/pkg/queue"
)

type fakeConnector struct {
	items []connector.DiscoveryItem
	err   error
}

func (f fakeConnector) Discover(ctx context.Context, watch connector.WatchItem) ([]connector.DiscoveryItem, error) {
	return f.items, f.err
}
func (f fakeConnector) FetchMetadata(ctx context.Context, item connector.DiscoveryItem) (connector.Metadata, error) {
	return nil, nil
}
func (f fakeConnector) FetchTranscript(ctx context.Context, item connector.DiscoveryItem) (string, error) {
	return "", nil
}

type fakeWatchStore struct {
	due     []WatchItem
	arms    map[string]map[string]bandit.ArmState
	commits int
}

func (f *fakeWatchStore) DueWatchlists(ctx context.Context, limit int) ([]WatchItem, error) {
	return f.due, nil
}
func (f *fakeWatchStore) LoadArms(ctx context.Context, armKey string) (map[string]bandit.ArmState, error) {
	if f.arms == nil {
		return make(map[string]bandit.ArmState), nil
	}
	if arms, ok := f.arms[armKey]; ok {
		return arms, nil
	}
	return make(map[string]bandit.ArmState), nil
}
func (f *fakeWatchStore) Commit(ctx context.Context, updates []WatchUpdate, arms map[string]map[string]bandit.ArmState) error {
	f.commits++
	f.arms = arms
	f.due = nil
	return nil
}

type fakeJobEnqueuer struct {
	enqueued []queue.Job
}

func (f *fakeJobEnqueuer) Enqueue(ctx context.Context, jobs []queue.Job) error {
	f.enqueued = append(f.enqueued, jobs...)
	return nil
}

func TestTickEnqueuesDiscoveredItemsAndUpdatesPacing(t *testing.T) {
	watches := &fakeWatchStore{
		due: []WatchItem{
			{Tenant: "t1", Workspace: "w1", SourceKind: queue.SourceRSS, Handle: "https://example.com/feed.xml"},
		},
	}
	conns := StaticConnectorRegistry{
		queue.SourceRSS: fakeConnector{items: []connector.DiscoveryItem{
			{ExternalID: "item-2", URL: "https://example.com/2"},
			{ExternalID: "item-1", URL: "https://example.com/1"},
		}},
	}
	policy := bandit.NewThompsonSeeded(bandit.RewardBounded, 1)
	jobs := &fakeJobEnqueuer{}
	sched := NewScheduler(watches, jobs, conns, policy, 10)

	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(jobs.enqueued) != 2 {
		t.Fatalf("expected 2 discovered jobs enqueued, got %d", len(jobs.enqueued))
	}
	if watches.commits != 1 {
		t.Fatalf("expected exactly one bulk commit, got %d", watches.commits)
	}
	if len(watches.due) != 0 {
		t.Fatalf("expected the fake store's due list to be cleared by Commit")
	}
}

func TestTickSkipsEnqueueWhenNothingDiscovered(t *testing.T) {
	watches := &fakeWatchStore{
		due: []WatchItem{
			{Tenant: "t1", Workspace: "w1", SourceKind: queue.SourceRSS, Handle: "https://example.com/feed.xml"},
		},
	}
	conns := StaticConnectorRegistry{queue.SourceRSS: fakeConnector{}}
	policy := bandit.NewThompsonSeeded(bandit.RewardBounded, 1)
	jobs := &fakeJobEnqueuer{}
	sched := NewScheduler(watches, jobs, conns, policy, 10)

	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(jobs.enqueued) != 0 {
		t.Fatalf("expected no jobs enqueued for an empty discovery, got %d", len(jobs.enqueued))
	}
	if watches.commits != 1 {
		t.Fatalf("pacing state must still be committed even when nothing was discovered")
	}
}

func TestPollRewardRewardsNewItemsHigherThanEmptyPoll(t *testing.T) {
	if pollReward(3, nil) <= pollReward(0, nil) {
		t.Fatalf("expected a poll with new items to reward higher than an empty poll")
	}
	if pollReward(0, nil) <= pollReward(0, context.DeadlineExceeded) {
		t.Fatalf("expected an errored poll to reward no higher than a clean empty poll")
	}
}

func TestWatchItemArmKeyIsScopedPerTenantWorkspaceHandle(t *testing.T) {
	a := WatchItem{Tenant: "t1", Workspace: "w1", Handle: "h1"}
	b := WatchItem{Tenant: "t2", Workspace: "w1", Handle: "h1"}
	if a.armKey() == b.armKey() {
		t.Fatalf("expected distinct tenants to produce distinct arm keys")
	}
}
