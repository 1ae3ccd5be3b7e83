package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Conversation holds the schema definition for the Conversation entity.
type Conversation struct {
	ent.Schema
}

// Fields of the Conversation.
func (Conversation) Fields() []ent.Field {
	return []ent.Field{
		field.Int("id"),
		field.Int("export_id"),
		field.String("conversation_id").
			Comment("sanitized source conversation id ([<>:\"/\\|?*] replaced with _)"),
		field.String("display_name"),
		field.Time("first_message_time").
			Optional().
			Nillable(),
		field.Time("last_message_time").
			Optional().
			Nillable(),
		field.Int("message_count").
			Default(0),
	}
}

// Edges of the Conversation.
func (Conversation) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("export", Export.Type).
			Ref("conversations").
			Field("export_id").
			Unique().
			Required().
			Immutable(),
		edge.To("messages", Message.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("participants", Participant.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Conversation.
func (Conversation) Indexes() []ent.Index {
	return []ent.Index{
		// B-tree on (export_id, conversation_id) per spec.
		index.Fields("export_id", "conversation_id").
			Unique(),
	}
}
