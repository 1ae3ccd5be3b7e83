package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Export holds the schema definition for the Export entity.
// One row per pipeline run that reached the load phase.
type Export struct {
	ent.Schema
}

// Fields of the Export.
func (Export) Fields() []ent.Field {
	return []ent.Field{
		field.Int("id"),
		field.Int("raw_export_id"),
		field.String("user_id"),
		field.String("user_display_name").
			Optional().
			Nillable(),
		field.Time("export_date"),
		field.JSON("metadata", map[string]interface{}{}).
			Optional().
			Comment("total_conversations, total_messages, elided_conversations"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Export.
func (Export) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("raw_export", RawExport.Type).
			Ref("exports").
			Field("raw_export_id").
			Unique().
			Required().
			Immutable(),
		edge.To("conversations", Conversation.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Export.
func (Export) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id"),
		index.Fields("raw_export_id"),
	}
}
