package memorial

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ada Lovelace", "ada-lovelace"},
		{"José Núñez", "jose-nunez"},
		{"  Zoë  O'Brien  ", "zoe-o-brien"},
		{"Maria-Teresa   Ángel", "maria-teresa-angel"},
		{"1815 / 1852", "1815-1852"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestDefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	ds := &Dataset{Person: Person{Name: "José Núñez"}, BaseDir: dir}
	assert.Equal(t, filepath.Join(dir, "jose-nunez-memories.pdf"), DefaultOutputPath(ds))

	ds.Person.Name = "???"
	assert.Equal(t, filepath.Join(dir, "book-memories.pdf"), DefaultOutputPath(ds))
}

func TestDebugHTMLPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "ada-memories-debug.html"), DebugHTMLPath(filepath.Join("out", "ada-memories.pdf")))
	assert.Equal(t, "book-debug.html", DebugHTMLPath("book"))
}
