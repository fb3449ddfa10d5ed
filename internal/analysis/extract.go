package analysis

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no JSON object can be recovered from text.
var ErrNoJSON = errors.New("no JSON object found in text")

// firstBalancedObject scans for the first top-level {...} block. Braces
// inside string literals are ignored once the scan is inside an object.
func firstBalancedObject(text string) (string, bool) {
	depth, start := 0, -1
	inString, escaped := false, false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// outermostBraces returns the text between the first '{' and the last '}'.
func outermostBraces(text string) (string, bool) {
	open := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if open < 0 || end <= open {
		return "", false
	}
	return text[open : end+1], true
}

// ExtractJSON returns the JSON object embedded in text. The whole text is
// tried first, then the first balanced object, then the outermost braces.
func ExtractJSON(text string) (json.RawMessage, error) {
	if obj, ok := asObject(text); ok {
		return obj, nil
	}
	for _, find := range []func(string) (string, bool){firstBalancedObject, outermostBraces} {
		candidate, found := find(text)
		if !found {
			continue
		}
		if obj, ok := asObject(candidate); ok {
			return obj, nil
		}
	}
	return nil, ErrNoJSON
}

func asObject(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !json.Valid([]byte(s)) {
		return nil, false
	}
	return json.RawMessage(s), true
}
