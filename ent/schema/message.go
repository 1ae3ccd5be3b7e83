package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Message holds the schema definition for the Message entity.
type Message struct {
	ent.Schema
}

// Fields of the Message.
func (Message) Fields() []ent.Field {
	return []ent.Field{
		field.Int("id"),
		field.Int("conversation_id"),
		field.String("message_id"),
		field.Time("timestamp").
			Comment("stored in UTC; microsecond precision if the source had it"),
		field.String("sender_id"),
		field.String("sender_display_name").
			Optional().
			Nillable(),
		field.Text("raw_content"),
		field.Text("cleaned_content"),
		field.String("message_type"),
		field.Bool("is_edited").
			Default(false),
		field.JSON("structured_data", map[string]interface{}{}).
			Optional(),
	}
}

// Edges of the Message.
func (Message) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("conversation", Conversation.Type).
			Ref("messages").
			Field("conversation_id").
			Unique().
			Required().
			Immutable(),
		edge.To("attachments", Attachment.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Message.
// GIN index on structured_data is created separately (see pkg/database/migrations.go).
func (Message) Indexes() []ent.Index {
	return []ent.Index{
		// B-tree on (conversation_id, timestamp) per spec — preserves bulk-insert ordering.
		index.Fields("conversation_id", "timestamp"),
		index.Fields("conversation_id", "message_id").
			Unique(),
	}
}
