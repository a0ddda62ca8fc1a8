package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugLength bounds slugs so generated file paths stay well under
// filesystem name limits even with a date prefix and extension attached.
const maxSlugLength = 80

// asciiFold decomposes Unicode text and strips combining marks, turning
// accented characters into their ASCII base forms.
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug converts a display name into a lowercase, hyphen-separated token safe
// for directory and file names. Diacritics are folded to ASCII, every run of
// non-alphanumeric characters collapses to a single hyphen, and the result is
// truncated to a bounded length. Returns "untitled" when nothing survives.
func Slug(value string) string {
	folded, _, err := transform.String(asciiFold, strings.TrimSpace(value))
	if err != nil {
		folded = strings.TrimSpace(value)
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	out := strings.Trim(b.String(), "-")
	if len(out) > maxSlugLength {
		out = strings.Trim(out[:maxSlugLength], "-")
	}
	if out == "" {
		return "untitled"
	}
	return out
}
