// Package security holds the stateless input checks shared by the services
// and the HTTP layer.
package security

import (
	"html"
	"strings"
	"unicode"
)

// SanitizeText returns input HTML-escaped and normalised: entities are
// decoded first, control characters are dropped, whitespace runs collapse
// to a single space, the text is truncated to maxLength runes and then
// escaped. A maxLength of zero or less disables truncation.
//
// The result is stable under repeated calls, so text that went through
// SanitizeText can be passed through it again without double escaping.
func SanitizeText(input string, maxLength int) string {
	text := PlainText(input)

	if maxLength > 0 {
		text = truncateRunes(text, maxLength)
	}

	return html.EscapeString(text)
}

// PlainText undoes the escaping applied by SanitizeText and normalises what
// is left. The result is plain text and must be escaped before rendering.
func PlainText(input string) string {
	if input == "" {
		return ""
	}

	return collapseWhitespace(stripControl(html.UnescapeString(input)))
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return ' '
		}

		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}

		return r
	}, s)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	count := 0

	for i := range s {
		if count == n {
			return strings.TrimRightFunc(s[:i], unicode.IsSpace)
		}
		count++
	}

	return s
}
