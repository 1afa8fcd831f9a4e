package email

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText drops tags, script and style bodies, decodes entities and
// collapses whitespace.
func HTMLToText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))

	var b strings.Builder
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken, html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					skipDepth++
				} else if skipDepth > 0 {
					skipDepth--
				}
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		}
	}
}
