package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// WatchItem holds the schema definition for a tenant's watched source
// (spec §4.1 connectors): a channel/handle polled on an adaptively-paced
// schedule.
type WatchItem struct {
	ent.Schema
}

// Fields of the WatchItem.
func (WatchItem) Fields() []ent.Field {
	return []ent.Field{
		field.String("tenant").
			Immutable(),
		field.String("workspace").
			Immutable(),
		field.Enum("source_kind").
			Values("youtube", "twitch", "twitter", "rss", "manual").
			Immutable(),
		field.String("handle").
			Immutable().
			Comment("Channel/handle/feed identifier within source_kind"),
		field.String("last_seen_external_id").
			Optional().
			Nillable(),
		field.Int("poll_interval_s").
			Default(900),
		field.Time("next_poll_at"),
	}
}

// Indexes of the WatchItem.
func (WatchItem) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tenant", "workspace", "source_kind", "handle").
			Unique(),
		index.Fields("next_poll_at"),
	}
}
