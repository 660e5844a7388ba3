package bandit

import "testing"

func TestEpsilonGreedyExploitsBestArm(t *testing.T) {
	p := NewEpsilonGreedySeeded(0, 1) // epsilon=0: always exploit
	arms := map[string]ArmState{
		"a": {ArmID: "a", Pulls: 10, RewardSum: 9},
		"b": {ArmID: "b", Pulls: 10, RewardSum: 1},
	}
	if got := p.Select(arms, nil); got != "a" {
		t.Fatalf("expected arm a (higher mean), got %s", got)
	}
}

func TestEpsilonGreedyUpdateAccumulates(t *testing.T) {
	p := NewEpsilonGreedySeeded(0, 1)
	arms := map[string]ArmState{}
	updated := p.Update(arms, "a", 1.0, nil)
	if updated.Pulls != 1 || updated.RewardSum != 1.0 {
		t.Fatalf("unexpected state after update: %+v", updated)
	}
}

func TestUCB1PrefersUntriedArms(t *testing.T) {
	p := NewUCB1()
	arms := map[string]ArmState{
		"a": {ArmID: "a", Pulls: 100, RewardSum: 50},
		"b": {ArmID: "b", Pulls: 0, RewardSum: 0},
	}
	if got := p.Select(arms, nil); got != "b" {
		t.Fatalf("expected untried arm b to win via infinite bonus, got %s", got)
	}
}

func TestArgmaxTiesBreakByLowestID(t *testing.T) {
	arms := map[string]ArmState{
		"b": {ArmID: "b", Pulls: 5, RewardSum: 2.5},
		"a": {ArmID: "a", Pulls: 5, RewardSum: 2.5},
	}
	ids := sortedArmIDs(arms)
	got := argmax(ids, func(id string) float64 { return arms[id].mean() })
	if got != "a" {
		t.Fatalf("expected tie broken toward lowest id 'a', got %s", got)
	}
}

func TestThompsonSelectReturnsAKnownArm(t *testing.T) {
	p := NewThompsonSeeded(RewardBounded, 42)
	arms := map[string]ArmState{
		"a": {ArmID: "a", Pulls: 10, RewardSum: 8},
		"b": {ArmID: "b", Pulls: 10, RewardSum: 2},
	}
	got := p.Select(arms, nil)
	if got != "a" && got != "b" {
		t.Fatalf("expected a known arm id, got %q", got)
	}
}

func TestLinUCBSelectAndUpdate(t *testing.T) {
	p := NewLinUCB(1.0, 1.0, 2)
	arms := map[string]ArmState{"a": {ArmID: "a"}, "b": {ArmID: "b"}}
	ctx := []float64{1, 0}

	selected := p.Select(arms, ctx)
	if selected != "a" && selected != "b" {
		t.Fatalf("expected a known arm, got %q", selected)
	}

	updated := p.Update(arms, "a", 1.0, ctx)
	if updated.Pulls != 1 {
		t.Fatalf("expected one pull recorded, got %+v", updated)
	}
	if updated.ContextA == nil || updated.ContextB == nil {
		t.Fatal("expected ridge state to be initialized")
	}
}

func TestLinTSSelectAndUpdate(t *testing.T) {
	p := NewLinTSSeeded(1.0, 1.0, 2, 7)
	arms := map[string]ArmState{"a": {ArmID: "a"}, "b": {ArmID: "b"}}
	ctx := []float64{0, 1}

	selected := p.Select(arms, ctx)
	if selected != "a" && selected != "b" {
		t.Fatalf("expected a known arm, got %q", selected)
	}

	updated := p.Update(arms, "b", 0.5, ctx)
	if updated.Pulls != 1 {
		t.Fatalf("expected one pull recorded, got %+v", updated)
	}
}

func TestMatrixInverseRoundTrip(t *testing.T) {
	m := matrix{{4, 0}, {0, 9}}
	inv := m.inverse()
	want := matrix{{0.25, 0}, {0, 1.0 / 9}}
	for i := range want {
		for j := range want[i] {
			if diff := inv[i][j] - want[i][j]; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("inverse mismatch at (%d,%d): got %v want %v", i, j, inv[i][j], want[i][j])
			}
		}
	}
}
