package pipeline

import (
	"encoding/json"

	"github.com/codeready-toolchain/skypeetl/pkg/etlerrors"
	"github.com/codeready-toolchain/skypeetl/pkg/models"
)

// normalizeRawJSON decodes data into a RawExport, trying each of the three
// shapes the source format allows in order and keeping the first that
// yields a non-empty conversations sequence (spec §4.4 step 1):
//
//  1. top-level object carrying `conversations` directly
//  2. `{"messages": [{"userId":..., "exportDate":..., "conversations": [...]}]}`
//  3. `{"messages": [...]}` treated as a single pseudo-conversation
func normalizeRawJSON(data []byte) (*models.RawExport, error) {
	if raw, ok := tryFlatShape(data); ok {
		return raw, nil
	}
	if raw, ok := tryWrappedShape(data); ok {
		return raw, nil
	}
	if raw, ok := tryPseudoConversationShape(data); ok {
		return raw, nil
	}
	return nil, etlerrors.NewExtractionError("input matches none of the supported export shapes", "", etlerrors.ErrSchemaViolation)
}

func tryFlatShape(data []byte) (*models.RawExport, bool) {
	var raw models.RawExport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	if len(raw.Conversations) == 0 {
		return nil, false
	}
	return &raw, true
}

func tryWrappedShape(data []byte) (*models.RawExport, bool) {
	var wrapper struct {
		Messages []struct {
			UserID        string                   `json:"userId"`
			ExportDate    string                   `json:"exportDate"`
			Conversations []models.RawConversation `json:"conversations"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil || len(wrapper.Messages) == 0 {
		return nil, false
	}
	first := wrapper.Messages[0]
	if len(first.Conversations) == 0 {
		return nil, false
	}
	return &models.RawExport{
		UserID:        first.UserID,
		ExportDate:    first.ExportDate,
		Conversations: first.Conversations,
	}, true
}

func tryPseudoConversationShape(data []byte) (*models.RawExport, bool) {
	var wrapper struct {
		Messages []models.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil || len(wrapper.Messages) == 0 {
		return nil, false
	}
	name := "conversation"
	return &models.RawExport{
		Conversations: []models.RawConversation{
			{ID: "default", DisplayName: &name, MessageList: wrapper.Messages},
		},
	}, true
}
