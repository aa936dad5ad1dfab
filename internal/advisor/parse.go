package advisor

import (
	"regexp"
	"strings"
)

// ordinalLine matches "1. text", "2) text", "3: text" and "4- text".
var ordinalLine = regexp.MustCompile(`^\d+[.):\-]\s+(.+)$`)

// ParseRecommendations extracts numbered list items from a model reply, in
// line order. When no line carries an ordinal marker the whole trimmed
// reply becomes the single item. Blank input yields nil.
func ParseRecommendations(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := ordinalLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if item := strings.TrimSpace(m[1]); item != "" {
			items = append(items, item)
		}
	}
	if len(items) > 0 {
		return items
	}
	if whole := strings.TrimSpace(text); whole != "" {
		return []string{whole}
	}
	return nil
}
