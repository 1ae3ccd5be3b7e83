package handlers

import "github.com/codeready-toolchain/skypeetl/pkg/models"

// PopCardHandler covers system "pop card" notices (e.g. consumption cards,
// read receipts rendered as cards).
type PopCardHandler struct{}

func (h *PopCardHandler) CanHandle(messageType string) bool {
	return messageType == "PopCard"
}

func (h *PopCardHandler) Extract(msg models.RawMessage) map[string]any {
	return map[string]any{
		"popcard_title":   propString(msg, "title"),
		"popcard_type":    propString(msg, "type"),
		"popcard_action":  propString(msg, "action"),
		"popcard_content": propString(msg, "content"),
	}
}
