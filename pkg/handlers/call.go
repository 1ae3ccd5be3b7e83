package handlers

import (
	"github.com/codeready-toolchain/skypeetl/pkg/models"
)

// CallHandler covers call-completion events.
type CallHandler struct{}

func (h *CallHandler) CanHandle(messageType string) bool {
	return messageType == "Event/Call"
}

func (h *CallHandler) Extract(msg models.RawMessage) map[string]any {
	participants := []map[string]any{}
	if raw, ok := msg.Properties["participants"].([]any); ok {
		for _, p := range raw {
			if pm, ok := p.(map[string]any); ok {
				participants = append(participants, map[string]any{"id": pm["id"], "name": pm["name"]})
			}
		}
	}

	return map[string]any{
		"call_data": map[string]any{
			"duration":     propString(msg, "duration"),
			"start_time":   propString(msg, "start_time"),
			"end_time":     propString(msg, "end_time"),
			"call_type":    propString(msg, "call_type"),
			"participants": participants,
		},
	}
}
