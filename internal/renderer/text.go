package renderer

import (
	"html"
	"regexp"
	"strings"

	nethtml "golang.org/x/net/html"
)

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

var blockElements = map[string]bool{
	"p": true, "div": true, "tr": true, "table": true, "ul": true, "ol": true,
	"pre": true, "blockquote": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "hr": true,
}

// htmlToText flattens rendered Markdown for DOCX output, where markup
// cannot be embedded. Block elements become line breaks.
func htmlToText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(html.UnescapeString(s))
	}

	var b strings.Builder
	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}

	z := nethtml.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			out := blankLinesRe.ReplaceAllString(b.String(), "\n\n")
			return strings.TrimSpace(out)
		case nethtml.TextToken:
			b.Write(z.Text())
		case nethtml.StartTagToken, nethtml.EndTagToken, nethtml.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "br":
				b.WriteByte('\n')
			case tag == "li" && tt == nethtml.StartTagToken:
				newline()
				b.WriteString("- ")
			case tag == "td" && tt == nethtml.EndTagToken, tag == "th" && tt == nethtml.EndTagToken:
				b.WriteByte('\t')
			case blockElements[tag]:
				newline()
			}
		}
	}
}
