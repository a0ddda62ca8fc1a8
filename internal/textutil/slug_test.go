package textutil_test

import (
	"strings"
	"testing"

	"podpull/internal/textutil"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "The Daily", "the-daily"},
		{"punctuation", "Ep. 42: Go & Rust!", "ep-42-go-rust"},
		{"diacritics", "Économie & Société", "economie-societe"},
		{"whitespace runs", "  a   b\tc ", "a-b-c"},
		{"already slugged", "already-slugged", "already-slugged"},
		{"empty", "", "untitled"},
		{"only symbols", "!!!", "untitled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := textutil.Slug(tc.input); got != tc.want {
				t.Fatalf("Slug(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSlugTruncates(t *testing.T) {
	long := strings.Repeat("podcast ", 40)
	got := textutil.Slug(long)
	if len(got) > 80 {
		t.Fatalf("slug length %d exceeds bound: %q", len(got), got)
	}
	if strings.HasSuffix(got, "-") || strings.HasPrefix(got, "-") {
		t.Fatalf("slug has dangling hyphen: %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"a/b:c", "a-b-c"},
		{`what?`, "what"},
		{"  spaced  ", "spaced"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := textutil.SanitizeFileName(tc.input); got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
