package handlers

import (
	"regexp"
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
)

// callProvider maps a meeting-link pattern to a provider name and a regex
// that extracts its native call/meeting id, supplementing the spec's
// "extracted from ≥4 known providers" requirement (§4.2).
type callProvider struct {
	name    string
	linkRe  *regexp.Regexp
	idRe    *regexp.Regexp
}

var callProviders = []callProvider{
	{"skype", regexp.MustCompile(`join\.skype\.com`), regexp.MustCompile(`join\.skype\.com/([a-zA-Z0-9]+)`)},
	{"teams", regexp.MustCompile(`teams\.microsoft\.com`), regexp.MustCompile(`meetingId=([a-zA-Z0-9_-]+)`)},
	{"zoom", regexp.MustCompile(`zoom\.us`), regexp.MustCompile(`/j/(\d+)`)},
	{"google_meet", regexp.MustCompile(`meet\.google\.com`), regexp.MustCompile(`meet\.google\.com/([a-zA-Z0-9-]+)`)},
}

// ScheduledCallHandler covers scheduled call/meeting invitations.
type ScheduledCallHandler struct{}

func (h *ScheduledCallHandler) CanHandle(messageType string) bool {
	return messageType == "RichText/ScheduledCallInvite"
}

func (h *ScheduledCallHandler) Extract(msg models.RawMessage) map[string]any {
	title := propString(msg, "title")
	if title == "" {
		title = "Scheduled Call"
	}

	link := propString(msg, "meeting_link")
	callID := propString(msg, "call_id")
	if callID == "" {
		for _, p := range callProviders {
			if p.linkRe.MatchString(link) {
				if m := p.idRe.FindStringSubmatch(link); m != nil {
					callID = m[1]
				}
				break
			}
		}
	}

	startTime := propString(msg, "start_time")
	if parsed, err := time.Parse(time.RFC3339, startTime); err == nil {
		startTime = parsed.Format(time.RFC3339)
	}

	participants := []string{}
	if raw, ok := msg.Properties["participants"].([]any); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				participants = append(participants, s)
			}
		}
	}

	return map[string]any{
		"scheduled_call": map[string]any{
			"title":             title,
			"start_time":        startTime,
			"end_time":          propString(msg, "end_time"),
			"duration_minutes":  propInt64(msg, "duration_minutes"),
			"organizer":         propString(msg, "organizer"),
			"participants":      participants,
			"description":       propString(msg, "description"),
			"meeting_link":      link,
			"call_id":           callID,
		},
	}
}
