package handlers

import "github.com/codeready-toolchain/skypeetl/pkg/models"

// UnknownHandler is the total-dispatch catch-all: it matches any message
// type left unhandled by the handlers ahead of it in the registry, and must
// stay last.
type UnknownHandler struct{}

func (h *UnknownHandler) CanHandle(messageType string) bool {
	return true
}

func (h *UnknownHandler) Extract(msg models.RawMessage) map[string]any {
	raw := map[string]any{}
	for k, v := range msg.Properties {
		raw[k] = v
	}
	return map[string]any{
		"unhandled_message_type": msg.MessageType,
		"raw_properties":         raw,
	}
}
