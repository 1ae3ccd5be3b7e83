package handlers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/codeready-toolchain/skypeetl/pkg/models"
	"golang.org/x/net/html"
)

var (
	pollQuestionSel = cascadia.MustCompile("pollquestion")
	pollOptionSel   = cascadia.MustCompile("polloption")
	digitsRe        = regexp.MustCompile(`\d+`)
)

// PollHandler covers poll messages, whose content embeds pollquestion and
// polloption tags rather than standard rich-text markup.
type PollHandler struct{}

func (h *PollHandler) CanHandle(messageType string) bool {
	return messageType == "Poll"
}

func (h *PollHandler) Extract(msg models.RawMessage) map[string]any {
	out := map[string]any{
		"poll_question": "Poll",
		"poll_options":  []map[string]any{},
		"poll_metadata": pollMetadata(msg),
	}

	doc, err := html.Parse(strings.NewReader("<html><body>" + msg.Content + "</body></html>"))
	if err != nil {
		return out
	}

	if q := cascadia.Query(doc, pollQuestionSel); q != nil {
		if text := strings.TrimSpace(textContent(q)); text != "" {
			out["poll_question"] = text
		}
	}

	var options []map[string]any
	for _, opt := range cascadia.QueryAll(doc, pollOptionSel) {
		text := strings.TrimSpace(textContent(opt))
		votes := 0
		if m := digitsRe.FindString(attrOf(opt, "votes")); m != "" {
			votes, _ = strconv.Atoi(m)
		}
		options = append(options, map[string]any{
			"text":        text,
			"vote_count":  votes,
			"is_selected": attrOf(opt, "selected") == "true",
		})
	}
	out["poll_options"] = options

	return out
}

func pollMetadata(msg models.RawMessage) map[string]any {
	meta := map[string]any{}
	if msg.Properties == nil {
		return meta
	}
	for _, key := range []string{"status", "vote_visibility", "creator", "total_votes", "created_at"} {
		if v, ok := msg.Properties["poll_"+key]; ok {
			meta[key] = v
		}
	}
	return meta
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
