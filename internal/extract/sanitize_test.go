package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeTextStripsInjectionChars(t *testing.T) {
	in := `<script>alert("x")</script> {"a": 1} back\slash`
	got := SanitizeText(in, 0)
	for _, ch := range []string{"<", ">", "{", "}", `\`} {
		if strings.Contains(got, ch) {
			t.Errorf("expected %q stripped, got %q", ch, got)
		}
	}
	if !strings.Contains(got, "scriptalert") {
		t.Errorf("expected surrounding text preserved, got %q", got)
	}
}

func TestSanitizeTextCapsLength(t *testing.T) {
	in := strings.Repeat("a", MaxExtractChars+500)
	got := SanitizeText(in, MaxExtractChars)
	if len(got) != MaxExtractChars {
		t.Errorf("expected %d chars, got %d", MaxExtractChars, len(got))
	}
	if SanitizeText("short", MaxExtractChars) != "short" {
		t.Error("short input must pass through unchanged")
	}
}

func TestSanitizeTextCapDoesNotSplitRunes(t *testing.T) {
	// "é" is two bytes; a cap of 3 lands mid-rune.
	got := SanitizeText("aaéé", 3)
	if got != "aa" {
		t.Errorf("expected cut at rune boundary, got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated output is not valid UTF-8: %q", got)
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank("  \n\t ") {
		t.Error("whitespace-only must be blank")
	}
	if IsBlank(" x ") {
		t.Error("text must not be blank")
	}
}
