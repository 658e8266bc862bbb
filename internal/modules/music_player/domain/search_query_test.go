package domain

import "testing"

func TestIsLocator(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"http://example.com", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"https://music.example.stream/live", true},
		{"http://localhost:8080/stream", true},
		{"http://192.168.1.10/radio", true},
		{"never gonna give you up", false},
		{"youtube.com/watch?v=abc", false},
		{"ftp://example.com/file", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsLocator(tt.input); got != tt.want {
			t.Errorf("IsLocator(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewSearchQuery_Locator(t *testing.T) {
	q := NewSearchQuery("  https://youtu.be/dQw4w9WgXcQ  ")

	if !q.IsLocator {
		t.Error("expected locator query")
	}
	if q.ResolverQuery() != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("expected locator passed through, got %q", q.ResolverQuery())
	}
}

func TestNewSearchQuery_FreeText(t *testing.T) {
	q := NewSearchQuery("some song title")

	if q.IsLocator {
		t.Error("expected free-text query")
	}
	if q.ResolverQuery() != SearchPrefix+"some song title" {
		t.Errorf("expected search prefix, got %q", q.ResolverQuery())
	}
}

func TestSearchQuery_ResolverQuery_StripsParentheses(t *testing.T) {
	q := NewSearchQuery("song title (official video)")

	want := SearchPrefix + "song title official video"
	if got := q.ResolverQuery(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSearchQuery_IsValid(t *testing.T) {
	if NewSearchQuery("   ").IsValid() {
		t.Error("expected blank query to be invalid")
	}
	if !NewSearchQuery("abc").IsValid() {
		t.Error("expected non-empty query to be valid")
	}
}
