// Package validate enforces shape invariants on raw input, transformed
// output, and database configuration (spec §4's Validator, C3), split into
// three phase-aware entry points the way the original Python implementation
// separates raw-phase from transformed-phase validation.
package validate

import (
	"fmt"
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/database"
	"github.com/codeready-toolchain/skypeetl/pkg/etlerrors"
	"github.com/codeready-toolchain/skypeetl/pkg/models"
)

// ValidateRaw enforces the RawExport shape (spec §3): required user_id and
// export_date, and an ordered conversations sequence whose entries carry
// an id. Violations raise an ExtractionError carrying the offending field
// path (spec §4.3 step 3).
func ValidateRaw(raw *models.RawExport) error {
	if raw == nil {
		return etlerrors.NewExtractionError("raw export is nil", "", etlerrors.ErrSchemaViolation)
	}
	if raw.UserID == "" {
		return etlerrors.NewExtractionError("missing required field", "user_id", etlerrors.ErrSchemaViolation)
	}
	if raw.ExportDate == "" {
		return etlerrors.NewExtractionError("missing required field", "export_date", etlerrors.ErrSchemaViolation)
	}
	if _, err := parseTimestamp(raw.ExportDate); err != nil {
		return etlerrors.NewExtractionError("export_date is not a valid timestamp", "export_date", etlerrors.ErrSchemaViolation)
	}

	for i, conv := range raw.Conversations {
		fieldPath := fmt.Sprintf("conversations[%d]", i)
		if conv.ID == "" {
			return etlerrors.NewExtractionError("conversation missing required id", fieldPath+".id", etlerrors.ErrSchemaViolation)
		}
		for j, msg := range conv.MessageList {
			msgPath := fmt.Sprintf("%s.message_list[%d]", fieldPath, j)
			if msg.ID == "" {
				return etlerrors.NewExtractionError("message missing required id", msgPath+".id", etlerrors.ErrSchemaViolation)
			}
			if msg.MessageType == "" {
				return etlerrors.NewExtractionError("message missing required messagetype", msgPath+".messagetype", etlerrors.ErrSchemaViolation)
			}
		}
	}
	return nil
}

// ValidateTransformed enforces the TransformedExport invariants (spec §3):
// every message count is consistent, and the conversation map isn't nil.
func ValidateTransformed(t *models.TransformedExport) error {
	if t == nil {
		return etlerrors.New(etlerrors.KindValidation, "transform", "transformed export is nil", nil)
	}
	if t.Conversations == nil {
		return etlerrors.New(etlerrors.KindValidation, "transform", "conversations map is nil", nil)
	}

	totalMessages := 0
	for _, key := range t.Conversations.Keys() {
		conv, ok := t.Conversations.Get(key)
		if !ok || conv == nil {
			return etlerrors.New(etlerrors.KindValidation, "transform",
				fmt.Sprintf("conversation %q referenced by key order but missing from map", key), nil)
		}
		if conv.MessageCount != len(conv.Messages) {
			return etlerrors.New(etlerrors.KindValidation, "transform",
				fmt.Sprintf("conversation %q message_count (%d) does not match messages length (%d)", key, conv.MessageCount, len(conv.Messages)), nil)
		}
		totalMessages += len(conv.Messages)
	}

	if t.Metadata.TotalMessages != totalMessages {
		return etlerrors.New(etlerrors.KindValidation, "transform",
			fmt.Sprintf("metadata.total_messages (%d) does not match sum of conversation message counts (%d)", t.Metadata.TotalMessages, totalMessages), nil)
	}
	if t.Metadata.TotalConversations != t.Conversations.Len() {
		return etlerrors.New(etlerrors.KindValidation, "transform",
			fmt.Sprintf("metadata.total_conversations (%d) does not match conversations present (%d)", t.Metadata.TotalConversations, t.Conversations.Len()), nil)
	}
	return nil
}

// ValidateDBConfig enforces the Loader's pooled-connection precondition
// (spec §4.5): at least 2 and at most 10 live connections, with a positive
// acquire timeout.
func ValidateDBConfig(cfg database.Config) error {
	if cfg.Host == "" {
		return etlerrors.New(etlerrors.KindValidation, "load", "database host is required", nil)
	}
	if cfg.Database == "" {
		return etlerrors.New(etlerrors.KindValidation, "load", "database name is required", nil)
	}
	if cfg.MinConns < 2 {
		return etlerrors.New(etlerrors.KindValidation, "load",
			fmt.Sprintf("min_conns must be at least 2, got %d", cfg.MinConns), nil)
	}
	if cfg.MaxConns > 10 {
		return etlerrors.New(etlerrors.KindValidation, "load",
			fmt.Sprintf("max_conns must be at most 10, got %d", cfg.MaxConns), nil)
	}
	if cfg.MinConns > cfg.MaxConns {
		return etlerrors.New(etlerrors.KindValidation, "load",
			fmt.Sprintf("min_conns (%d) cannot exceed max_conns (%d)", cfg.MinConns, cfg.MaxConns), nil)
	}
	if cfg.AcquireTimeout <= 0 {
		return etlerrors.New(etlerrors.KindValidation, "load", "acquire_timeout must be positive", nil)
	}
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
