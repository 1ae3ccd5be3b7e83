package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMarkup_ScenarioC_MentionAndLink(t *testing.T) {
	body := `<at id="u2">Bob</at> see <a href="https://x.y">here</a>`
	assert.Equal(t, "@Bob see here (https://x.y)", FormatMarkup(body))
}

func TestFormatMarkup_Bold(t *testing.T) {
	assert.Equal(t, "hello *world*", FormatMarkup("hello <b>world</b>"))
}

func TestFormatMarkup_QuoteWithAuthor(t *testing.T) {
	got := FormatMarkup(`<quote author="Alice">original text</quote>reply`)
	assert.Equal(t, "> Alice wrote:\n> original text\nreply", got)
}

func TestFormatMarkup_LineBreakCollapsesWhitespace(t *testing.T) {
	got := FormatMarkup("line one<br>line two<br><br><br>line three")
	assert.Equal(t, "line one\nline two\n\nline three", got)
}

func TestFormatMarkup_Idempotent(t *testing.T) {
	inputs := []string{
		"plain text, no html here",
		"already   collapsed\n\nparagraphs",
		"@Bob see here (https://x.y)",
	}
	for _, in := range inputs {
		once := FormatMarkup(in)
		twice := FormatMarkup(once)
		assert.Equal(t, once, twice, "FormatMarkup should be idempotent on plain text: %q", in)
	}
}

func TestFormatMarkup_DOMAndRegexAgreeOnWellFormedInput(t *testing.T) {
	wellFormed := []string{
		`<at id="u2">Bob</at> see <a href="https://x.y">here</a>`,
		"hello <b>world</b> and <i>italic</i>",
		`<quote author="Alice">hi</quote>`,
		"no tags at all",
	}
	for _, in := range wellFormed {
		assert.Equal(t, formatRegex(in), formatDOM(in), "DOM and regex paths must agree on well-formed input: %q", in)
	}
}

func TestFormatMarkup_MalformedFallsBackWithoutPanicking(t *testing.T) {
	got := FormatMarkup("<b>unterminated bold and <i>nested</b> italic")
	assert.NotContains(t, got, "<b>")
}

func TestFormatMarkup_EmptyContent(t *testing.T) {
	assert.Equal(t, "", FormatMarkup(""))
}

func TestExtractStructured_MentionsLinksQuotes(t *testing.T) {
	body := `<at id="u2">Bob</at> <a href="https://x.y">here</a> <quote author="Alice">hi</quote>`
	sd := ExtractStructured(body)

	assert.Equal(t, []Mention{{ID: "u2", Name: "Bob"}}, sd.Mentions)
	assert.Equal(t, []Link{{URL: "https://x.y", Text: "here"}}, sd.Links)
	assert.Equal(t, []Quote{{Author: "Alice", Text: "hi"}}, sd.Quotes)
}

func TestExtractStructured_BarePlainURLAutodetected(t *testing.T) {
	sd := ExtractStructured("check out https://example.com/path for details")
	assert.Equal(t, []Link{{URL: "https://example.com/path", Text: "https://example.com/path"}}, sd.Links)
}

func TestExtractStructured_EmptyBodyYieldsEmptyStructuredData(t *testing.T) {
	sd := ExtractStructured("")
	assert.Empty(t, sd.AsMap())
}

func TestExtractStructured_Formatting(t *testing.T) {
	sd := ExtractStructured("<b>bold</b> <i>italic</i> <code>x=1</code>")
	assert.Equal(t, []string{"bold"}, sd.Formatting.Bold)
	assert.Equal(t, []string{"italic"}, sd.Formatting.Italic)
	assert.Equal(t, []string{"x=1"}, sd.Formatting.Code)
}
