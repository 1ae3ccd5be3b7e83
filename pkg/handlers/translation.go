package handlers

import "github.com/codeready-toolchain/skypeetl/pkg/models"

// TranslationHandler covers inline machine-translated messages.
type TranslationHandler struct{}

func (h *TranslationHandler) CanHandle(messageType string) bool {
	return messageType == "Translation"
}

func (h *TranslationHandler) Extract(msg models.RawMessage) map[string]any {
	return map[string]any{
		"translation_from_language": propString(msg, "from_language"),
		"translation_to_language":   propString(msg, "to_language"),
		"translation_text":          propString(msg, "text"),
		"translation_original_text": propString(msg, "original_text"),
	}
}
