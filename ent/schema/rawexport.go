package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// RawExport holds the schema definition for the RawExport entity.
// Stores the verbatim decoded export JSON for audit and dedup by content hash.
type RawExport struct {
	ent.Schema
}

// Fields of the RawExport.
func (RawExport) Fields() []ent.Field {
	return []ent.Field{
		field.Int("id"),
		field.String("file_hash").
			Unique().
			Comment("SHA-256 of the canonical JSON serialization, used for dedup"),
		field.String("file_name").
			Optional().
			Nillable(),
		field.Time("export_date"),
		field.JSON("raw_data", map[string]interface{}{}).
			Comment("Verbatim decoded export document"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the RawExport.
func (RawExport) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("exports", Export.Type),
	}
}

// Indexes of the RawExport.
// The GIN index on raw_data is created separately (see pkg/database/migrations.go)
// because Ent's generic JSON column annotations don't expose a postgres-gin operator class.
func (RawExport) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("file_hash").
			Unique(),
	}
}
