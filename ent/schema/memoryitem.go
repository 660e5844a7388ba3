package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// MemoryItem holds the schema definition for the MemoryItem entity (spec
// §4.4): a namespaced, embedded, optionally-pinned fact/claim/summary row in
// the long-term memory store. The embedding itself is stored as a JSON float
// array column (field "vector") rather than a pgvector column, since no
// pgvector extension dependency is available anywhere in the retrieved pack
// — see pkg/memory.SQLAdapter, which scans this column and does the cosine
// comparison in Go.
type MemoryItem struct {
	ent.Schema
}

// Fields of the MemoryItem.
func (MemoryItem) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("item_id").
			Unique().
			Immutable(),
		field.String("namespace").
			Immutable().
			Comment("Tenant/workspace scoping key"),
		field.Enum("kind").
			Values("transcript_chunk", "topic", "claim", "summary", "evidence"),
		field.Text("text"),
		field.JSON("vector", []float32{}).
			Comment("Embedding, JSON-encoded float32 array"),
		field.JSON("metadata", map[string]interface{}{}).
			Optional(),
		field.Bool("pinned").
			Default(false),
		field.Bool("archived").
			Default(false),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("expires_at").
			Optional().
			Nillable(),
	}
}

// Indexes of the MemoryItem.
func (MemoryItem) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("namespace", "archived"),
		index.Fields("namespace", "kind"),
		index.Fields("expires_at").
			Annotations(entsql.IndexWhere("expires_at IS NOT NULL")),
	}
}
