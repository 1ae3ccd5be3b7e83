package handlers

import (
	"strings"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
)

// TextHandler covers plain and rich-text messages.
type TextHandler struct{}

func (h *TextHandler) CanHandle(messageType string) bool {
	switch strings.ToLower(messageType) {
	case "richtext", "richtext/html", "text":
		return true
	}
	return false
}

func (h *TextHandler) Extract(msg models.RawMessage) map[string]any {
	_, hasMentioned := msg.Properties["mentioned"]
	_, hasEmotions := msg.Properties["emotions"]
	return map[string]any{
		"has_mentions":  hasMentioned,
		"has_emotions": hasEmotions,
	}
}
