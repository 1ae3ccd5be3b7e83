package handlers

import (
	"testing"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseMessage(messageType string) models.RawMessage {
	return models.RawMessage{
		ID:                  "msg-1",
		OriginalArrivalTime: "2024-01-01T00:00:00Z",
		From:                "8:alice",
		Content:             "",
		MessageType:         messageType,
		Properties:          map[string]any{},
	}
}

func TestRegistry_HandlerTotality(t *testing.T) {
	r := NewRegistry()

	messageTypes := []string{
		"RichText", "RichText/Html", "Text",
		"RichText/UriObject", "RichText/Media_Album",
		"Poll", "Event/Call", "RichText/ScheduledCallInvite",
		"RichText/Location", "RichText/Contacts", "RichText/Media_Card",
		"PopCard", "Translation", "ThreadActivity/AddMember",
		"SomeEntirelyUnknownFutureType",
	}

	for _, mt := range messageTypes {
		t.Run(mt, func(t *testing.T) {
			h := r.Lookup(mt)
			require.NotNil(t, h)

			result, err := Dispatch(r, baseMessage(mt))
			require.NoError(t, err)

			for _, field := range []string{"id", "timestamp", "sender_id", "sender_name", "message_type", "is_edited"} {
				assert.Contains(t, result, field, "missing base field %q for type %q", field, mt)
			}
			assert.Equal(t, mt, result["message_type"])
		})
	}
}

func TestRegistry_UnknownMessageTypeFallsThroughToUnknownHandler(t *testing.T) {
	r := NewRegistry()
	h := r.Lookup("Something/NeverSeenBefore")
	assert.IsType(t, &UnknownHandler{}, h)
}

func TestDispatch_RecoversFromHandlerPanic(t *testing.T) {
	r := &Registry{handlers: []Handler{&panickingHandler{}, &UnknownHandler{}}}
	msg := baseMessage("Whatever")

	result, err := Dispatch(r, msg)
	require.NoError(t, err)
	assert.Equal(t, "handler panicked during extraction", result["extraction_error"])
	assert.Equal(t, "msg-1", result["id"])
}

type panickingHandler struct{}

func (p *panickingHandler) CanHandle(messageType string) bool { return true }
func (p *panickingHandler) Extract(msg models.RawMessage) map[string]any {
	panic("boom")
}

func TestTextHandler_DetectsMentionsAndEmotions(t *testing.T) {
	msg := baseMessage("RichText")
	msg.Properties = map[string]any{"mentioned": "alice", "emotions": []any{"like"}}
	h := &TextHandler{}
	out := h.Extract(msg)
	assert.Equal(t, true, out["has_mentions"])
	assert.Equal(t, true, out["has_emotions"])
}

func TestMediaHandler_FormatsFilesize(t *testing.T) {
	msg := baseMessage("RichText/UriObject")
	msg.Properties = map[string]any{"filename": "photo.jpg", "filesize": float64(2048), "filetype": "jpg"}
	h := &MediaHandler{}
	out := h.Extract(msg)
	assert.Equal(t, "photo.jpg", out["media_filename"])
	assert.Equal(t, int64(2048), out["media_filesize"])
	assert.Equal(t, "2.0 kB", out["media_filesize_formatted"])
}

func TestMediaHandler_Album(t *testing.T) {
	msg := baseMessage("RichText/Media_Album")
	msg.Properties = map[string]any{
		"album_items": []any{
			map[string]any{"url": "http://a", "width": float64(100), "height": float64(200)},
			map[string]any{"url": "http://b", "width": float64(50), "height": float64(60)},
		},
	}
	h := &MediaHandler{}
	out := h.Extract(msg)
	assert.Equal(t, 2, out["media_album_count"])
	items, ok := out["media_album_items"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestPollHandler_ParsesQuestionAndOptions(t *testing.T) {
	msg := baseMessage("Poll")
	msg.Content = `<pollquestion>Lunch?</pollquestion><polloption votes="3" selected="true">Pizza</polloption><polloption votes="1">Salad</polloption>`
	h := &PollHandler{}
	out := h.Extract(msg)
	assert.Equal(t, "Lunch?", out["poll_question"])
	options, ok := out["poll_options"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, options, 2)
	assert.Equal(t, "Pizza", options[0]["text"])
	assert.Equal(t, 3, options[0]["vote_count"])
	assert.Equal(t, true, options[0]["is_selected"])
}

func TestCallHandler_ExtractsParticipants(t *testing.T) {
	msg := baseMessage("Event/Call")
	msg.Properties = map[string]any{
		"duration":   "120",
		"call_type":  "video",
		"participants": []any{
			map[string]any{"id": "8:alice", "name": "Alice"},
		},
	}
	h := &CallHandler{}
	out := h.Extract(msg)
	callData, ok := out["call_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "120", callData["duration"])
	participants, ok := callData["participants"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, participants, 1)
}

func TestScheduledCallHandler_DetectsProviderFromLink(t *testing.T) {
	msg := baseMessage("RichText/ScheduledCallInvite")
	msg.Properties = map[string]any{
		"title":        "Weekly sync",
		"meeting_link": "https://zoom.us/j/123456789",
	}
	h := &ScheduledCallHandler{}
	out := h.Extract(msg)
	call, ok := out["scheduled_call"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Weekly sync", call["title"])
	assert.Equal(t, "123456789", call["call_id"])
}

func TestRegistry_MediaCardDispatchesToMediaCardHandlerNotMedia(t *testing.T) {
	r := NewRegistry()
	h := r.Lookup("RichText/Media_Card")
	assert.IsType(t, &MediaCardHandler{}, h)

	msg := baseMessage("RichText/Media_Card")
	msg.Properties = map[string]any{"title": "An article", "url": "https://example.com/a"}
	result, err := Dispatch(r, msg)
	require.NoError(t, err)
	assert.Equal(t, "An article", result["card_title"])
	assert.Equal(t, "https://example.com/a", result["card_url"])
	assert.NotContains(t, result, "media_filename")
}

func TestLocationHandler_MatchesBareAndRichTextTags(t *testing.T) {
	h := &LocationHandler{}
	assert.True(t, h.CanHandle("Location"))
	assert.True(t, h.CanHandle("RichText/Location"))
	assert.False(t, h.CanHandle("RichText/Contacts"))
}

func TestRegistry_BareLocationTagDispatchesToLocationHandler(t *testing.T) {
	r := NewRegistry()
	msg := baseMessage("Location")
	msg.Properties = map[string]any{"latitude": 1.5, "longitude": 2.5, "name": "Home"}
	result, err := Dispatch(r, msg)
	require.NoError(t, err)
	locationData, ok := result["location_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Home", locationData["name"])
}

func TestThreadActivityHandler_MatchesAnySubtype(t *testing.T) {
	h := &ThreadActivityHandler{}
	for _, mt := range []string{
		"ThreadActivity/AddMember",
		"ThreadActivity/JoiningEnabledUpdate",
		"ThreadActivity/HistoryDisclosedUpdate",
	} {
		assert.True(t, h.CanHandle(mt), "expected %q to match", mt)
	}
	assert.False(t, h.CanHandle("RichText"))
}

func TestUnknownHandler_PassesThroughRawProperties(t *testing.T) {
	msg := baseMessage("Something/Exotic")
	msg.Properties = map[string]any{"foo": "bar"}
	h := &UnknownHandler{}
	out := h.Extract(msg)
	assert.Equal(t, "Something/Exotic", out["unhandled_message_type"])
	raw, ok := out["raw_properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bar", raw["foo"])
}
