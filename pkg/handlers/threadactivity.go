package handlers

import (
	"strings"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
)

// ThreadActivityHandler covers conversation membership/metadata change events
// (member added/removed, topic changed, picture changed, joining-enabled,
// history-disclosed, and any other ThreadActivity/* subtype).
type ThreadActivityHandler struct{}

func (h *ThreadActivityHandler) CanHandle(messageType string) bool {
	return strings.HasPrefix(strings.ToLower(messageType), "threadactivity/")
}

func (h *ThreadActivityHandler) Extract(msg models.RawMessage) map[string]any {
	members := []map[string]any{}
	if raw, ok := msg.Properties["members"].([]any); ok {
		for _, m := range raw {
			mm, ok := m.(map[string]any)
			if !ok {
				continue
			}
			members = append(members, map[string]any{"id": mm["id"], "name": mm["name"]})
		}
	}
	return map[string]any{
		"activity_type":      msg.MessageType,
		"activity_members":   members,
		"activity_value":     propString(msg, "value"),
		"activity_initiator": propString(msg, "initiator"),
	}
}
