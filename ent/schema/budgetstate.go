package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// BudgetState holds the schema definition for the BudgetState entity (spec
// §4.6 budget preflight): a tenant's cumulative spend within the current
// rolling window, consulted before every routing decision and incremented
// after every completed LLM call.
type BudgetState struct {
	ent.Schema
}

// Fields of the BudgetState.
func (BudgetState) Fields() []ent.Field {
	return []ent.Field{
		field.String("tenant_id").
			Immutable(),
		field.Float("spent_usd").
			Default(0),
		field.Time("window_started_at").
			Comment("Start of the current rolling budget window"),
	}
}

// Indexes of the BudgetState.
func (BudgetState) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant_id").
			Unique(),
	}
}
