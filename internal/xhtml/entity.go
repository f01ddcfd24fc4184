package xhtml

import "golang.org/x/net/html"

// Unescape decodes character references in text taken from the markup.
func Unescape(s string) string {
	return html.UnescapeString(s)
}
