package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	markupRe   = regexp.MustCompile(`(?i)<\s*/?\s*(html|body|div|p|br|table|tr|td|span|a|li|ul|ol|font|b|strong|i|em|img|head|meta|style|script|h[1-6])\b[^>]*>`)
	tagRe      = regexp.MustCompile(`(?s)<[^>]*>`)
	dropBlocks = regexp.MustCompile(`(?is)<(script|style|head|title|noscript)\b.*?</(script|style|head|title|noscript)\s*>`)
	breakRe    = regexp.MustCompile(`(?i)<\s*br\s*/?\s*>|</\s*(p|div|li|tr|h[1-6]|table|blockquote)\s*>`)
	htmlSpace  = regexp.MustCompile(`[ \t\r\n\f\x{00a0}]+`)
)

// Elements that never carry announcement content.
var nonContent = []string{"script", "style", "head", "meta", "link", "title", "noscript"}

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "table": true, "blockquote": true,
	"ul": true, "ol": true, "section": true, "article": true, "header": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "pre": true,
}

var cellElements = map[string]bool{"td": true, "th": true}

// IsMarkup reports whether the body looks like HTML rather than plain text.
func IsMarkup(body string) bool {
	return markupRe.MatchString(body)
}

// markupToText renders an HTML body as plain text. Hyperlinks become
// "visible text (url)" and block elements end with a line break.
func markupToText(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}

	doc.Find(strings.Join(nonContent, ",")).Remove()

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(strings.ToLower(href), "mailto:") {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		switch {
		case text == "" || text == href:
			s.SetText(href)
		default:
			s.SetText(fmt.Sprintf("%s (%s)", text, href))
		}
	})

	var b strings.Builder
	for _, n := range doc.Nodes {
		render(&b, n)
	}
	return b.String(), nil
}

func render(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(htmlSpace.ReplaceAllString(n.Data, " "))
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if n.Data == "br" {
			b.WriteString("\n")
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(b, c)
	}
	switch {
	case block:
		b.WriteString("\n")
	case n.Type == html.ElementNode && cellElements[n.Data]:
		b.WriteString(" ")
	}
}

// stripTags is the degraded path used when the markup cannot be parsed.
func stripTags(body string) string {
	body = dropBlocks.ReplaceAllString(body, "")
	body = breakRe.ReplaceAllString(body, "\n")
	body = tagRe.ReplaceAllString(body, " ")
	return html.UnescapeString(body)
}
