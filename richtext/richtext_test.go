package richtext

import "testing"

func TestFormatInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"__bold__", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"so _very_ kind", "so <em>very</em> kind"},
		{"**bold *italic* text**", "<strong>bold <em>italic</em> text</strong>"},
		{"snake_case_name", "snake_case_name"},
		{"<script>", "&lt;script&gt;"},
		{"Tom & Jerry", "Tom &amp; Jerry"},
	}
	for _, tt := range tests {
		got := FormatInline(tt.input)
		if got != tt.expected {
			t.Errorf("FormatInline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderParagraphs(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"   ", ""},
		{"One line", "<p>One line</p>"},
		{"First\nSecond", "<p>First<br>Second</p>"},
		{"First\n\nSecond", "<p>First</p><p>Second</p>"},
		{"First\r\n\r\n\r\nSecond", "<p>First</p><p>Second</p>"},
		{"First\n  \nSecond", "<p>First</p><p>Second</p>"},
	}
	for _, tt := range tests {
		got := Render(tt.input)
		if got != tt.expected {
			t.Errorf("Render(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestHTMLMatchesRender(t *testing.T) {
	msg := "Rest easy, **friend**.\n\nWe miss you."
	if string(HTML(msg)) != Render(msg) {
		t.Errorf("HTML = %q, want %q", HTML(msg), Render(msg))
	}
}

func TestPlain(t *testing.T) {
	if got := Plain("A **bold** and *soft* _word_"); got != "A bold and soft word" {
		t.Errorf("Plain = %q", got)
	}
}
