package models

import "time"

// Attachment is a file or media reference extracted from a message's
// structured data.
type Attachment struct {
	Type        string         `json:"type"`
	Name        string         `json:"name,omitempty"`
	URL         string         `json:"url,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	Size        int64          `json:"size,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// TransformedMessage is the normalized, handler-enriched form of a RawMessage.
type TransformedMessage struct {
	ID                 string         `json:"id"`
	ConversationID      string         `json:"conversation_id"`
	Timestamp           time.Time      `json:"timestamp"`
	SenderID            string         `json:"sender_id"`
	SenderDisplayName   string         `json:"sender_display_name,omitempty"`
	RawContent          string         `json:"raw_content"`
	CleanedContent      string         `json:"cleaned_content"`
	MessageType         string         `json:"message_type"`
	IsEdited            bool           `json:"is_edited"`
	StructuredData      map[string]any `json:"structured_data"`
	Attachments         []Attachment   `json:"attachments"`
}

// TransformedConversation is one conversation after Transform, with its
// messages in their original order and the set of senders observed.
type TransformedConversation struct {
	ID               string                `json:"id"`
	DisplayName      string                `json:"display_name"`
	MessageCount     int                   `json:"message_count"`
	FirstMessageTime *time.Time            `json:"first_message_time,omitempty"`
	LastMessageTime  *time.Time            `json:"last_message_time,omitempty"`
	Messages         []TransformedMessage  `json:"messages"`
	Participants     []string              `json:"participants"`
}

// ExportMetadata summarizes a TransformedExport for reporting and for the
// exports.metadata JSONB column.
type ExportMetadata struct {
	UserID             string `json:"user_id"`
	UserDisplayName    string `json:"user_display_name,omitempty"`
	ExportDate         string `json:"export_date"`
	TotalConversations int    `json:"total_conversations"`
	TotalMessages      int    `json:"total_messages"`
	ElidedConversations int   `json:"elided_conversations"`
}

// TransformedExport is the complete output of the Transform phase.
// Conversations preserves RawExport's conversation iteration order with
// elided (null-display-name) conversations omitted (spec §3 invariants).
type TransformedExport struct {
	Metadata      ExportMetadata   `json:"metadata"`
	Conversations *ConversationMap `json:"conversations"`
}
