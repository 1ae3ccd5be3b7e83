package handlers

import (
	"strings"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
	humanize "github.com/dustin/go-humanize"
)

// MediaHandler covers attached images, files, and albums.
type MediaHandler struct{}

func (h *MediaHandler) CanHandle(messageType string) bool {
	t := strings.ToLower(messageType)
	return t == "richtext/urioobject" || t == "richtext/uriobject" ||
		(strings.HasPrefix(t, "richtext/media_") && !strings.HasPrefix(t, "richtext/media_card"))
}

func (h *MediaHandler) Extract(msg models.RawMessage) map[string]any {
	out := map[string]any{
		"media_filename":           propString(msg, "filename"),
		"media_filesize":           propInt64(msg, "filesize"),
		"media_filesize_formatted": humanize.Bytes(uint64(propInt64(msg, "filesize"))),
		"media_filetype":           propString(msg, "filetype"),
		"media_url":                propString(msg, "url"),
		"media_width":              propInt64(msg, "width"),
		"media_height":             propInt64(msg, "height"),
		"media_duration":           propInt64(msg, "duration"),
		"media_description":       propString(msg, "description"),
	}

	if strings.HasSuffix(strings.ToLower(msg.MessageType), "media_album") {
		items, _ := msg.Properties["album_items"].([]any)
		out["media_album_count"] = len(items)
		albumItems := make([]map[string]any, 0, len(items))
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			albumItems = append(albumItems, map[string]any{
				"url":       item["url"],
				"thumbnail": item["thumbnail"],
				"width":     item["width"],
				"height":    item["height"],
			})
		}
		out["media_album_items"] = albumItems
	}

	return out
}

func propString(msg models.RawMessage, key string) string {
	if msg.Properties == nil {
		return ""
	}
	if v, ok := msg.Properties[key].(string); ok {
		return v
	}
	return ""
}

func propInt64(msg models.RawMessage, key string) int64 {
	if msg.Properties == nil {
		return 0
	}
	switch v := msg.Properties[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
