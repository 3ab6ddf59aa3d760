package template

import "strings"

// HTMLFromText converts a plain-text body into minimal line-break-preserving
// markup for transport as formatted content. Markup characters are escaped
// before line breaks become <br> elements.
func HTMLFromText(text string) string {
	escaped := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(text)

	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")

	return strings.ReplaceAll(escaped, "\n", "<br>")
}
