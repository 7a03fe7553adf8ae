// Package richtext renders tribute messages as HTML: escaped paragraphs,
// line breaks, and a small subset of inline emphasis.
package richtext

import (
	"html"
	"html/template"
	"regexp"
	"strings"
)

var (
	reBold             = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscore   = regexp.MustCompile(`__(.+?)__`)
	reItalic           = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicUnderscore = regexp.MustCompile(`(^|\s)_([^_]+)_(\s|$|[.,;:!?])`)
	reBlankLines       = regexp.MustCompile(`\n[ \t]*\n+`)
)

// HTML renders msg for use inside an html/template.
func HTML(msg string) template.HTML {
	return template.HTML(Render(msg))
}

// Render converts msg to HTML. Blank lines separate paragraphs and single
// newlines become <br>. All text is escaped before formatting is applied.
func Render(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ""
	}
	var b strings.Builder
	for _, para := range reBlankLines.Split(msg, -1) {
		lines := strings.Split(strings.TrimSpace(para), "\n")
		for i := range lines {
			lines[i] = FormatInline(strings.TrimSpace(lines[i]))
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// FormatInline escapes s and applies bold and italic markers.
func FormatInline(s string) string {
	out := html.EscapeString(s)
	out = reBold.ReplaceAllString(out, "<strong>$1</strong>")
	out = reBoldUnderscore.ReplaceAllString(out, "<strong>$1</strong>")
	out = reItalic.ReplaceAllString(out, "<em>$1</em>")
	out = reItalicUnderscore.ReplaceAllString(out, "$1<em>$2</em>$3")
	return out
}

// Plain strips emphasis markers, leaving the text a reader would see.
func Plain(s string) string {
	s = reBold.ReplaceAllString(s, "$1")
	s = reBoldUnderscore.ReplaceAllString(s, "$1")
	s = reItalic.ReplaceAllString(s, "$1")
	return reItalicUnderscore.ReplaceAllString(s, "$1$2$3")
}
