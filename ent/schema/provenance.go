package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Provenance holds the schema definition for the Provenance entity (spec
// §4.8 stage 9): an append-only audit trail of which pipeline stage touched
// a job and a content-hash summary of what it produced, for later
// reconciliation/debugging.
type Provenance struct {
	ent.Schema
}

// Fields of the Provenance.
func (Provenance) Fields() []ent.Field {
	return []ent.Field{
		field.Int("id").
			Immutable(),
		field.String("tenant").
			Immutable(),
		field.String("workspace").
			Immutable(),
		field.String("job_id").
			Immutable(),
		field.String("stage").
			Immutable(),
		field.Time("ts").
			Default(time.Now).
			Immutable(),
		field.String("summary_hash").
			Immutable().
			Comment("SHA256 hex of the stage's output summary"),
	}
}

// Indexes of the Provenance.
func (Provenance) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("job_id", "ts"),
		index.Fields("tenant", "workspace"),
	}
}
