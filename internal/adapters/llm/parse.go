package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"newspulse/internal/ports"
)

// cleanJSONResponse strips code fences and surrounding prose from a model
// reply that is supposed to be a JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around the JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// parseTags splits a comma-separated tag reply, dropping empty entries.
func parseTags(reply string) []string {
	parts := strings.FieldsFunc(reply, func(r rune) bool { return r == ',' || r == '\n' })
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := strings.TrimSpace(p); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// parseImpact decodes the impact-classification JSON reply.
func parseImpact(reply string) (ports.MarketImpact, error) {
	var impact ports.MarketImpact
	if err := json.Unmarshal([]byte(cleanJSONResponse(reply)), &impact); err != nil {
		return ports.MarketImpact{}, fmt.Errorf("unparsable impact reply %q: %w", reply, err)
	}
	if impact.Level == "" {
		impact.Level = "unknown"
	}
	return impact, nil
}

// parseSameEvent interprets the comparison reply. Models answer with bare
// booleans, quoted booleans or short sentences containing one; a
// case-insensitive substring match on "true" covers all observed variants.
func parseSameEvent(reply string) bool {
	return strings.Contains(strings.ToLower(reply), "true")
}
