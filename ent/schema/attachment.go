package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Attachment holds the schema definition for the Attachment entity.
type Attachment struct {
	ent.Schema
}

// Fields of the Attachment.
func (Attachment) Fields() []ent.Field {
	return []ent.Field{
		field.Int("id"),
		field.Int("message_id"),
		field.String("type").
			Comment("media, card, file, ..."),
		field.String("name").
			Optional().
			Nillable(),
		field.String("url").
			Optional().
			Nillable(),
		field.String("content_type").
			Optional().
			Nillable(),
		field.Int64("size").
			Optional().
			Nillable(),
		field.JSON("metadata", map[string]interface{}{}).
			Optional(),
	}
}

// Edges of the Attachment.
func (Attachment) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("message", Message.Type).
			Ref("attachments").
			Field("message_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Attachment.
func (Attachment) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("message_id"),
	}
}
