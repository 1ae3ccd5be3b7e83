package handlers

import "github.com/codeready-toolchain/skypeetl/pkg/models"

// MediaCardHandler covers rich link-preview cards (e.g. shared articles).
type MediaCardHandler struct{}

func (h *MediaCardHandler) CanHandle(messageType string) bool {
	return messageType == "RichText/Media_Card"
}

func (h *MediaCardHandler) Extract(msg models.RawMessage) map[string]any {
	return map[string]any{
		"card_title":         propString(msg, "title"),
		"card_description":   propString(msg, "description"),
		"card_url":           propString(msg, "url"),
		"card_thumbnail_url": propString(msg, "thumbnail_url"),
		"card_provider":      propString(msg, "provider"),
	}
}
