package content

import (
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	mentionSel = cascadia.MustCompile("at")
	linkSel    = cascadia.MustCompile("a")
	quoteSel   = cascadia.MustCompile("quote")
	boldSel    = cascadia.MustCompile("b, strong")
	italicSel  = cascadia.MustCompile("i, em")
	underSel   = cascadia.MustCompile("u")
	strikeSel  = cascadia.MustCompile("s, strike, del")
	codeSel    = cascadia.MustCompile("code, pre")

	mentionRe = regexp.MustCompile(`(?s)<at id=["']([^"']*)["'][^>]*>(.*?)</at>`)
	linkRe    = regexp.MustCompile(`(?s)<a href=["']([^"']*)["'][^>]*>(.*?)</a>`)
	quoteRe   = regexp.MustCompile(`(?s)<quote author=["']([^"']*)["'][^>]*>(.*?)</quote>`)
	quoteNoAuthorRe = regexp.MustCompile(`(?s)<quote>(.*?)</quote>`)
	boldRe    = regexp.MustCompile(`(?s)<(?:b|strong)[^>]*>(.*?)</(?:b|strong)>`)
	italicRe  = regexp.MustCompile(`(?s)<(?:i|em)[^>]*>(.*?)</(?:i|em)>`)
	underRe   = regexp.MustCompile(`(?s)<u[^>]*>(.*?)</u>`)
	strikeRe  = regexp.MustCompile(`(?s)<(?:s|strike|del)[^>]*>(.*?)</(?:s|strike|del)>`)
	codeRe    = regexp.MustCompile(`(?s)<(?:code|pre)[^>]*>(.*?)</(?:code|pre)>`)

	plainURLRe = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// ExtractStructured produces the structured index of mentions, links,
// quotes, and inline formatting found in a message body (spec §4.1).
// It never returns an error: if the DOM parse fails, the body is extracted
// with the regex path instead, so the caller's transform is never aborted.
func ExtractStructured(body string) StructuredData {
	if body == "" {
		return StructuredData{}
	}

	if isWellFormed(body) {
		return extractDOM(body)
	}
	return extractRegex(body)
}

func extractDOM(body string) StructuredData {
	nodes, err := html.ParseFragment(strings.NewReader(body), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return extractRegex(body)
	}
	root := &html.Node{Type: html.ElementNode, Data: "body"}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	var sd StructuredData
	for _, n := range cascadia.QueryAll(root, mentionSel) {
		sd.Mentions = append(sd.Mentions, Mention{ID: attr(n, "id"), Name: textOf(n)})
	}

	links := sd.Links
	seen := map[string]bool{}
	for _, n := range cascadia.QueryAll(root, linkSel) {
		href := attr(n, "href")
		links = append(links, Link{URL: href, Text: textOf(n)})
		seen[href] = true
	}
	for _, url := range plainURLRe.FindAllString(body, -1) {
		if !seen[url] {
			links = append(links, Link{URL: url, Text: url})
			seen[url] = true
		}
	}
	sd.Links = links

	for _, n := range cascadia.QueryAll(root, quoteSel) {
		sd.Quotes = append(sd.Quotes, Quote{Author: attr(n, "author"), Text: strings.TrimSpace(textOf(n))})
	}

	f := Formatting{
		Bold:      textsOf(cascadia.QueryAll(root, boldSel)),
		Italic:    textsOf(cascadia.QueryAll(root, italicSel)),
		Underline: textsOf(cascadia.QueryAll(root, underSel)),
		Strike:    textsOf(cascadia.QueryAll(root, strikeSel)),
		Code:      textsOf(cascadia.QueryAll(root, codeSel)),
	}
	if !f.Empty() {
		sd.Formatting = &f
	}

	return sd
}

func extractRegex(body string) StructuredData {
	var sd StructuredData

	for _, m := range mentionRe.FindAllStringSubmatch(body, -1) {
		sd.Mentions = append(sd.Mentions, Mention{ID: m[1], Name: strings.TrimSpace(stripTags(m[2]))})
	}

	seen := map[string]bool{}
	for _, m := range linkRe.FindAllStringSubmatch(body, -1) {
		url, text := m[1], strings.TrimSpace(stripTags(m[2]))
		sd.Links = append(sd.Links, Link{URL: url, Text: text})
		seen[url] = true
	}
	for _, url := range plainURLRe.FindAllString(body, -1) {
		if !seen[url] {
			sd.Links = append(sd.Links, Link{URL: url, Text: url})
			seen[url] = true
		}
	}

	for _, m := range quoteRe.FindAllStringSubmatch(body, -1) {
		sd.Quotes = append(sd.Quotes, Quote{Author: m[1], Text: strings.TrimSpace(stripTags(m[2]))})
	}
	for _, m := range quoteNoAuthorRe.FindAllStringSubmatch(body, -1) {
		sd.Quotes = append(sd.Quotes, Quote{Author: "", Text: strings.TrimSpace(stripTags(m[1]))})
	}

	f := Formatting{
		Bold:      submatches(boldRe, body),
		Italic:    submatches(italicRe, body),
		Underline: submatches(underRe, body),
		Strike:    submatches(strikeRe, body),
		Code:      submatches(codeRe, body),
	}
	if !f.Empty() {
		sd.Formatting = &f
	}

	return sd
}

func submatches(re *regexp.Regexp, body string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(body, -1) {
		out = append(out, strings.TrimSpace(stripTags(m[1])))
	}
	return out
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}
