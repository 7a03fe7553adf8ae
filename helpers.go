package memorial

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify converts s to a lowercase ASCII slug. Accents are stripped, so
// "José Núñez" becomes "jose-nunez".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	s, _, _ = transform.String(t, s)
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// DefaultOutputPath is where a book for ds is written when no output path is
// configured: "<dataset dir>/<slug of name>-memories.pdf".
func DefaultOutputPath(ds *Dataset) string {
	name := Slugify(ds.Person.Name)
	if name == "" {
		name = "book"
	}
	return filepath.Join(ds.BaseDir, name+"-memories.pdf")
}

// DebugHTMLPath returns the markup path written next to a PDF output.
func DebugHTMLPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + "-debug.html"
}
