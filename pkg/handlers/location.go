package handlers

import (
	"strings"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
)

// LocationHandler covers shared-location messages. The bare "Location" tag
// is the primary form (original_source's LocationMessageHandler.can_handle
// matches on message_type.lower() == 'location'); "RichText/Location" is
// also accepted per spec §4.2's handler table.
type LocationHandler struct{}

func (h *LocationHandler) CanHandle(messageType string) bool {
	t := strings.ToLower(messageType)
	return t == "location" || t == "richtext/location"
}

func (h *LocationHandler) Extract(msg models.RawMessage) map[string]any {
	return map[string]any{
		"location_data": map[string]any{
			"latitude":  propFloat64(msg, "latitude"),
			"longitude": propFloat64(msg, "longitude"),
			"address":   propString(msg, "address"),
			"name":      propString(msg, "name"),
		},
	}
}

func propFloat64(msg models.RawMessage, key string) float64 {
	if msg.Properties == nil {
		return 0
	}
	switch v := msg.Properties[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}
