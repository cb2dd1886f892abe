package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseCommandList pulls a JSON array of kubectl commands out of a model reply.
// Fences and prose around the array are ignored. Entries that are not strings
// or do not start with kubectl are dropped, duplicates collapse, and the list
// is capped at limit.
func parseCommandList(content string, limit int) ([]string, error) {
	raw, ok := extractJSONArray(stripFences(content))
	if !ok {
		return nil, fmt.Errorf("no JSON array in response: %q", truncate(strings.TrimSpace(content), 120))
	}

	var items []interface{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode command list: %w", err)
	}

	seen := make(map[string]bool, len(items))
	commands := make([]string, 0, len(items))
	for _, item := range items {
		cmd, ok := item.(string)
		if !ok {
			continue
		}
		cmd = strings.TrimSpace(cmd)
		if !strings.HasPrefix(cmd, "kubectl") || seen[cmd] {
			continue
		}
		seen[cmd] = true
		commands = append(commands, cmd)
		if limit > 0 && len(commands) == limit {
			break
		}
	}
	return commands, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		content = content[nl+1:]
	}
	if end := strings.LastIndex(content, "```"); end >= 0 {
		content = content[:end]
	}
	return strings.TrimSpace(content)
}

// extractJSONArray returns the first balanced, valid [...] span.
func extractJSONArray(content string) (string, bool) {
	for start := 0; start < len(content); start++ {
		if content[start] != '[' {
			continue
		}
		if candidate, ok := balancedArray(content[start:]); ok && json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// balancedArray scans from a leading '[' to its closing bracket, skipping
// brackets inside string literals.
func balancedArray(content string) (string, bool) {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return content[:i+1], true
			}
		}
	}
	return "", false
}
