package gemini

import "encoding/json"

// ExtractFirstJSON scans s for balanced {...} blocks (brace-depth tracked)
// and returns the first one that parses as a JSON object. Blocks that fail
// to parse are skipped and the scan continues.
func ExtractFirstJSON(s string) (map[string]any, bool) {
	depth := 0
	start := -1
	for i, ch := range s {
		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					var obj map[string]any
					if err := json.Unmarshal([]byte(s[start:i+1]), &obj); err == nil {
						return obj, true
					}
				}
			}
		}
	}
	return nil, false
}
