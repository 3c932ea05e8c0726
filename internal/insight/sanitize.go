package insight

import "strings"

// roleMarkers are matched against lowercased lines. A line holding any of
// them is the model inventing another dialogue turn.
var roleMarkers = []string{
	"user:",
	"assistant:",
	"health assistant:",
	"system:",
	"<|user|>",
	"<|assistant|>",
	"<|system|>",
}

// Clean sanitizes raw model output using DefaultTemplate.
func Clean(raw string) string {
	return DefaultTemplate.Clean(raw)
}

// Clean turns raw completion text into a single summary paragraph. It never
// fails, and Clean(Clean(x)) == Clean(x).
func (t Template) Clean(raw string) string {
	text := raw
	if end := t.Format.End; end != "" {
		if i := strings.Index(text, end); i >= 0 {
			text = text[:i]
		}
	}

	markers := t.markers()
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if hasMarker(strings.ToLower(line), markers) {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(strings.Fields(strings.Join(kept, " ")), " ")

	seed := strings.TrimSpace(t.Seed)
	for seed != "" && hasPrefixFold(out, seed) {
		out = strings.TrimSpace(out[len(seed):])
	}
	return out
}

func (t Template) markers() []string {
	out := make([]string, 0, len(roleMarkers)+len(t.StopMarkers))
	out = append(out, roleMarkers...)
	for _, m := range t.StopMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func hasMarker(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
