package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// WatchPacingArm holds the schema definition for a watch item's per-arm
// bandit state (spec §4.1: adaptive poll-interval selection), keyed by a
// watch_key (tenant/workspace/source_kind/handle) rather than a foreign key
// edge, since pacing arms are looked up by the same composite key
// scheduler.WatchItem uses, not by row id.
type WatchPacingArm struct {
	ent.Schema
}

// Fields of the WatchPacingArm.
func (WatchPacingArm) Fields() []ent.Field {
	return []ent.Field{
		field.String("watch_key").
			Immutable(),
		field.String("arm_id").
			Immutable().
			Comment("Candidate poll interval, e.g. '15m', '1h', '6h'"),
		field.Int("pulls").
			Default(0),
		field.Float("reward_sum").
			Default(0),
		field.Float("reward_sq_sum").
			Default(0),
	}
}

// Indexes of the WatchPacingArm.
func (WatchPacingArm) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("watch_key", "arm_id").
			Unique(),
	}
}
