package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// BanditArm holds the schema definition for the BanditArm entity (spec
// §4.6): one tenant/domain/arm's cumulative reward statistics, persisted
// across router decisions and process restarts.
type BanditArm struct {
	ent.Schema
}

// Fields of the BanditArm.
func (BanditArm) Fields() []ent.Field {
	return []ent.Field{
		field.String("tenant_id").
			Immutable(),
		field.String("domain").
			Immutable().
			Comment("Routing domain, e.g. model_selection, prompt_variant"),
		field.String("arm_id").
			Immutable(),
		field.Int("pulls").
			Default(0),
		field.Float("reward_sum").
			Default(0),
		field.Float("reward_sq_sum").
			Default(0),
		field.JSON("context_a", []float64{}).
			Optional().
			Comment("LinUCB/LinTS A matrix, row-major flattened"),
		field.JSON("context_b", []float64{}).
			Optional().
			Comment("LinUCB/LinTS b vector"),
		field.Int("version").
			Default(1).
			Comment("Optimistic-concurrency counter, incremented on every save"),
	}
}

// Indexes of the BanditArm.
func (BanditArm) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id", "domain", "arm_id").
			Unique(),
	}
}
