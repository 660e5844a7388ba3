package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// MissionOutbox holds the schema definition for the MissionOutbox entity
// (spec §4.9 session resilience): the durable, keyed-by-mission_id final
// result a caller whose session closed mid-mission can retrieve later.
type MissionOutbox struct {
	ent.Schema
}

// Fields of the MissionOutbox.
func (MissionOutbox) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("mission_id").
			Unique().
			Immutable(),
		field.String("tenant").
			Immutable(),
		field.String("workspace").
			Immutable(),
		field.Enum("status").
			Values("completed", "cancelled", "short_circuited"),
		field.Text("final_text").
			Optional().
			Nillable(),
		field.JSON("metrics", map[string]interface{}{}).
			Optional(),
		field.Time("persisted_at").
			Default(time.Now),
	}
}

// Indexes of the MissionOutbox.
func (MissionOutbox) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant", "workspace"),
		index.Fields("persisted_at"),
	}
}
