package content

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
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
	return strings.TrimSpace(sb.String())
}

func textsOf(nodes []*html.Node) []string {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, textOf(n))
	}
	return out
}

// supportedTagPairs lists the tag groups the parser understands, used by
// isWellFormed to decide between the DOM and regex extraction paths.
var supportedTagPairs = []struct {
	open  *regexp.Regexp
	close *regexp.Regexp
}{
	{regexp.MustCompile(`(?i)<at[ >]`), regexp.MustCompile(`(?i)</at>`)},
	{regexp.MustCompile(`(?i)<a[ >]`), regexp.MustCompile(`(?i)</a>`)},
	{regexp.MustCompile(`(?i)<b[ >]|<strong[ >]`), regexp.MustCompile(`(?i)</b>|</strong>`)},
	{regexp.MustCompile(`(?i)<i[ >]|<em[ >]`), regexp.MustCompile(`(?i)</i>|</em>`)},
	{regexp.MustCompile(`(?i)<u[ >]`), regexp.MustCompile(`(?i)</u>`)},
	{regexp.MustCompile(`(?i)<s[ >]|<strike[ >]|<del[ >]`), regexp.MustCompile(`(?i)</s>|</strike>|</del>`)},
	{regexp.MustCompile(`(?i)<code[ >]|<pre[ >]`), regexp.MustCompile(`(?i)</code>|</pre>`)},
	{regexp.MustCompile(`(?i)<quote[ >]`), regexp.MustCompile(`(?i)</quote>`)},
}

// isWellFormed reports whether every supported tag's open/close counts
// balance. Stray `<`/`>` characters outside recognized tags are not checked.
// Well-formed input uses the DOM path; the rest falls back to regex,
// matching spec §4.1's "malformed input uses the regex path" rule.
func isWellFormed(body string) bool {
	for _, pair := range supportedTagPairs {
		if len(pair.open.FindAllString(body, -1)) != len(pair.close.FindAllString(body, -1)) {
			return false
		}
	}
	return true
}
