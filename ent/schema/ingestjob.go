package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// IngestJob holds the schema definition for the IngestJob entity (spec §3):
// one row per discovered source item, tracked through the C7 priority queue.
type IngestJob struct {
	ent.Schema
}

// Fields of the IngestJob.
func (IngestJob) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("job_id").
			Unique().
			Immutable().
			Comment("Deterministic hash of tenant/workspace/source_kind/external_id"),
		field.String("tenant").
			Immutable(),
		field.String("workspace").
			Immutable(),
		field.Enum("source_kind").
			Values("youtube", "twitch", "twitter", "rss", "manual").
			Immutable(),
		field.String("external_id").
			Immutable(),
		field.String("url"),
		field.Int("priority").
			Default(0),
		field.Time("enqueued_at").
			Default(time.Now).
			Immutable(),
		field.Time("lease_until").
			Optional().
			Nillable(),
		field.Int("attempts").
			Default(0),
		field.Enum("status").
			Values("pending", "leased", "done", "error", "dead").
			Default("pending"),
		field.Text("last_error").
			Optional().
			Nillable(),
	}
}

// Indexes of the IngestJob.
func (IngestJob) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status", "priority", "enqueued_at"),
		index.Fields("tenant", "workspace"),
		index.Fields("status", "lease_until").
			Annotations(entsql.IndexWhere("status = 'leased'")),
	}
}
