package content

import (
	"html"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	wsRunRe      = regexp.MustCompile(`[ \t]+`)
	wsAroundNlRe = regexp.MustCompile(` *\n *`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)

	linkAnyRe  = regexp.MustCompile(`(?s)<a[^>]*>.*?</a>`)
	hrefAttrRe = regexp.MustCompile(`href=["']([^"']*)["']`)
	linkTextRe = regexp.MustCompile(`(?s)>(.*?)</a>`)

	quoteAnyRe  = regexp.MustCompile(`(?s)<quote[^>]*>.*?</quote>`)
	authorAttrRe = regexp.MustCompile(`author=["']([^"']*)["']`)
	quoteTextRe  = regexp.MustCompile(`(?s)>(.*?)</quote>`)

	atRe    = regexp.MustCompile(`(?s)<at[^>]*>(.*?)</at>`)
	boldFmtRe   = regexp.MustCompile(`(?s)<(?:b|strong)[^>]*>(.*?)</(?:b|strong)>`)
	italicFmtRe = regexp.MustCompile(`(?s)<(?:i|em)[^>]*>(.*?)</(?:i|em)>`)
	underFmtRe  = regexp.MustCompile(`(?s)<u[^>]*>(.*?)</u>`)
	strikeFmtRe = regexp.MustCompile(`(?s)<(?:s|strike|del)[^>]*>(.*?)</(?:s|strike|del)>`)
	codeFmtRe   = regexp.MustCompile(`(?s)<(?:code|pre)[^>]*>(.*?)</(?:code|pre)>`)
	brRe        = regexp.MustCompile(`(?i)<br[^>]*>`)
	anyTagRe    = regexp.MustCompile(`<[^>]+>`)
)

// FormatMarkup renders a message body's supported tags into plain-text
// markup (spec §4.1). It never errors: on catastrophic parser failure it
// falls back to stripping raw tags.
func FormatMarkup(body string) string {
	if body == "" {
		return ""
	}

	if isWellFormed(body) {
		return formatDOM(body)
	}
	return formatRegex(body)
}

func formatDOM(body string) string {
	nodes, err := xhtml.ParseFragment(strings.NewReader(body), &xhtml.Node{
		Type:     xhtml.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return formatRegex(body)
	}

	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(renderNode(n))
	}
	return collapseWhitespace(sb.String())
}

func renderNode(n *xhtml.Node) string {
	switch n.Type {
	case xhtml.TextNode:
		return n.Data
	case xhtml.ElementNode:
		switch strings.ToLower(n.Data) {
		case "at":
			return "@" + textOf(n)
		case "a":
			href := attr(n, "href")
			text := textOf(n)
			switch {
			case href != "" && text != "" && href != text:
				return text + " (" + href + ")"
			case href != "":
				return href
			default:
				return text
			}
		case "b", "strong":
			return "*" + textOf(n) + "*"
		case "i", "em":
			return "_" + textOf(n) + "_"
		case "u":
			return "_" + textOf(n) + "_"
		case "s", "strike", "del":
			return "~" + textOf(n) + "~"
		case "code", "pre":
			return "`" + textOf(n) + "`"
		case "quote":
			author := attr(n, "author")
			text := strings.TrimSpace(textOf(n))
			if author != "" {
				return "\n> " + author + " wrote:\n> " + text + "\n"
			}
			return "\n> " + text + "\n"
		case "br":
			return "\n"
		default:
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				sb.WriteString(renderNode(c))
			}
			return sb.String()
		}
	default:
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			sb.WriteString(renderNode(c))
		}
		return sb.String()
	}
}

func formatRegex(body string) string {
	out := atRe.ReplaceAllString(body, "@$1")

	out = linkAnyRe.ReplaceAllStringFunc(out, func(match string) string {
		hrefM := hrefAttrRe.FindStringSubmatch(match)
		textM := linkTextRe.FindStringSubmatch(match)
		switch {
		case hrefM != nil && textM != nil:
			href, text := hrefM[1], textM[1]
			if href != text {
				return text + " (" + href + ")"
			}
			return href
		case hrefM != nil:
			return hrefM[1]
		case textM != nil:
			return textM[1]
		default:
			return ""
		}
	})

	out = boldFmtRe.ReplaceAllString(out, "*$1*")
	out = italicFmtRe.ReplaceAllString(out, "_$1_")
	out = underFmtRe.ReplaceAllString(out, "_$1_")
	out = strikeFmtRe.ReplaceAllString(out, "~$1~")
	out = codeFmtRe.ReplaceAllString(out, "`$1`")

	out = quoteAnyRe.ReplaceAllStringFunc(out, func(match string) string {
		authorM := authorAttrRe.FindStringSubmatch(match)
		textM := quoteTextRe.FindStringSubmatch(match)
		if textM == nil {
			return ""
		}
		text := strings.TrimSpace(textM[1])
		if authorM != nil {
			return "\n> " + authorM[1] + " wrote:\n> " + text + "\n"
		}
		return "\n> " + text + "\n"
	})

	out = brRe.ReplaceAllString(out, "\n")
	out = anyTagRe.ReplaceAllString(out, "")
	out = html.UnescapeString(out)

	return collapseWhitespace(out)
}

func collapseWhitespace(s string) string {
	s = wsRunRe.ReplaceAllString(s, " ")
	s = wsAroundNlRe.ReplaceAllString(s, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
