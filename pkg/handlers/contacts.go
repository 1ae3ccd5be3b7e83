package handlers

import "github.com/codeready-toolchain/skypeetl/pkg/models"

// ContactsHandler covers shared-contact-card messages.
type ContactsHandler struct{}

func (h *ContactsHandler) CanHandle(messageType string) bool {
	return messageType == "RichText/Contacts"
}

func (h *ContactsHandler) Extract(msg models.RawMessage) map[string]any {
	contacts := []map[string]any{}
	if raw, ok := msg.Properties["contacts"].([]any); ok {
		for _, c := range raw {
			cm, ok := c.(map[string]any)
			if !ok {
				continue
			}
			contacts = append(contacts, map[string]any{
				"name":  cm["name"],
				"phone": cm["phone"],
				"email": cm["email"],
				"mri":   cm["mri"],
			})
		}
	}
	return map[string]any{"contacts": contacts}
}
