package casedata

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	markupPattern     = regexp.MustCompile(`<[a-zA-Z/!]`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// blockElements end the current line when they open or close.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "table": true, "blockquote": true,
}

// PlainText reduces a rich-text narrative to plain text. Paragraph-level elements become
// line breaks, list items get a "- " prefix and entities are decoded. Text without markup
// is returned unchanged.
func PlainText(s string) string {
	if !markupPattern.MatchString(s) {
		if strings.Contains(s, "&") {
			return html.UnescapeString(s)
		}
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			out := strings.ReplaceAll(b.String(), "\u00a0", " ")
			out = blankLinesPattern.ReplaceAllString(out, "\n\n")
			return strings.Trim(out, "\n")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if !blockElements[tag] {
				continue
			}
			switch {
			case tag == "p" && tt == html.EndTagToken:
				b.WriteString("\n\n")
			case tag == "li" && tt == html.StartTagToken:
				ensureNewline(&b)
				b.WriteString("- ")
			case tag == "br":
				b.WriteString("\n")
			default:
				ensureNewline(&b)
			}
		}
	}
}

func ensureNewline(b *strings.Builder) {
	if b.Len() == 0 {
		return
	}
	if s := b.String(); !strings.HasSuffix(s, "\n") {
		b.WriteString("\n")
	}
}
