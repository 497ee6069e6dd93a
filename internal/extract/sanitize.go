package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxExtractChars caps OCR text sent to the model service.
	MaxExtractChars = 10000
	// MaxQuestionChars caps user chat input.
	MaxQuestionChars = 5000
)

// Angle/curly brackets and backslashes are stripped before transmission
// to blunt prompt injection through document text.
var reStripChars = regexp.MustCompile(`[<>{}\\]`)

// SanitizeText strips bracket/backslash characters and caps the byte
// length, backing off to a rune boundary so the cap never splits a
// multi-byte character.
func SanitizeText(s string, max int) string {
	s = reStripChars.ReplaceAllString(s, "")
	if max > 0 && len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

// IsBlank reports whether s contains no printable content.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
