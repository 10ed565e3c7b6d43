package sanitize

import (
	"strings"
	"unicode"
)

// NoticeText normalizes admin-supplied notice text to plain text.
// Markup is stripped rather than escaped here: the text is stored unescaped
// and HTML-escaped once at render time, which avoids double-encoding.
func NoticeText(text string) string {
	// Remove any null bytes
	text = strings.ReplaceAll(text, "\x00", "")

	text = StripTags(text)

	// Remove control characters, fold newlines and tabs into spaces
	// (a banner notice is a single line of text)
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)

	// Collapse runs of whitespace left behind by stripped markup
	text = strings.Join(strings.Fields(text), " ")

	return strings.TrimSpace(text)
}

// StripTags removes anything that looks like an HTML/XML tag, keeping the
// text between tags. Unterminated tags are dropped through to the end of
// the input rather than kept as text.
func StripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case inTag:
			if r == '>' {
				inTag = false
			}
		case r == '<':
			inTag = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
