package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/mediread/vault/internal/entity"
)

var reCodeFence = regexp.MustCompile("```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?\\s*```")

// ParseRecord recovers a single JSON object from noisy model output and
// coerces it into a typed record. It never fails: empty input, prose-only
// replies, malformed JSON and unrecognized tags all collapse to the
// unknown record so the human reviewer can still act.
func ParseRecord(raw string) entity.ExtractedRecord {
	jsonStr, ok := RecordJSON(raw)
	if !ok {
		return entity.UnknownRecord()
	}

	var rec entity.ExtractedRecord
	if err := json.Unmarshal(jsonStr, &rec); err != nil {
		return entity.UnknownRecord()
	}
	rec.Normalize()
	return rec
}

// RecordJSON locates the JSON object ParseRecord would decode: the inner
// content of a fenced code block if present, then the first balanced
// top-level object, then the widest brace span as a last resort.
func RecordJSON(raw string) ([]byte, bool) {
	candidate := raw
	if m := reCodeFence.FindStringSubmatch(raw); m != nil {
		candidate = strings.TrimSpace(m[1])
	}

	if span, ok := objectSpan(candidate); ok {
		return []byte(span), true
	}
	first := strings.IndexByte(candidate, '{')
	last := strings.LastIndexByte(candidate, '}')
	if first < 0 || last <= first {
		return nil, false
	}
	return []byte(candidate[first : last+1]), true
}

// objectSpan returns the first complete top-level JSON object in s,
// tracking brace depth with string/escape awareness so braces inside
// string values do not terminate the scan early.
func objectSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inStr := false
	esc := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
