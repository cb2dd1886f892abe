package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

const (
	promptHistoryTurns = 3
	promptTurnChars    = 100
)

var errNoJSONObject = errors.New("no JSON object in AI response")

// classifyWithAI asks the collaborator and parses its reply. Errors are
// returned to the caller, which decides what to substitute.
func classifyWithAI(ctx context.Context, ai ports.AIClassifier, message string, history []domain.ConversationMessage) (domain.ClassificationResult, error) {
	reply, err := ai.ClassifyQuestion(ctx, buildPrompt(message, history))
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("ai classification: %w", err)
	}
	return parseAIResponse(reply)
}

func buildPrompt(message string, history []domain.ConversationMessage) string {
	var conversation string
	if len(history) > 0 {
		recent := history
		if len(recent) > promptHistoryTurns {
			recent = recent[len(recent)-promptHistoryTurns:]
		}
		lines := make([]string, 0, len(recent))
		for _, msg := range recent {
			lines = append(lines, fmt.Sprintf("%s: %s", roleOrUnknown(msg.Role), truncateRunes(msg.Message, promptTurnChars)))
		}
		conversation = "\nRecent conversation:\n" + strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`
Classify this Kubernetes question for command execution strategy:

Question: "%s"
%s

Return a JSON response with:
{
    "complexity_score": 0.0-1.0,
    "question_type": "simple_listing|moderate_investigation|deep_analysis",
    "confidence": 0.0-1.0,
    "reasoning": "brief explanation",
    "suggested_max_commands": 1-4,
    "follow_up_allowed": true/false,
    "response_style": "concise|detailed|comprehensive"
}

Guidelines:
- Simple listing (0.0-0.3): "show pods", "list services" - max 1 command, no follow-up
- Moderate investigation (0.4-0.6): "check pod status", "verify deployment" - max 2 commands, follow-up allowed
- Deep analysis (0.7-1.0): "investigate issues", "debug problems" - max 4 commands, follow-up required
`, message, conversation)
}

func roleOrUnknown(role domain.Role) string {
	if role == "" {
		return "unknown"
	}
	return string(role)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// parseAIResponse extracts the first balanced JSON object and maps it onto a
// result tagged "ai". Missing fields take neutral defaults.
func parseAIResponse(reply string) (domain.ClassificationResult, error) {
	raw, ok := extractJSONObject(reply)
	if !ok {
		return domain.ClassificationResult{}, errNoJSONObject
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("decode AI classification: %w", err)
	}

	questionType := domain.ParseQuestionType(stringField(fields, "question_type", ""))
	maxCommands := int(numberField(fields, "suggested_max_commands", 1))
	if maxCommands < 1 {
		maxCommands = 1
	}
	if maxCommands > 4 {
		maxCommands = 4
	}

	return domain.ClassificationResult{
		QuestionType:         questionType,
		StrategyType:         questionType.Strategy(),
		ComplexityScore:      domain.Clamp01(numberField(fields, "complexity_score", 0.5)),
		Confidence:           domain.Clamp01(numberField(fields, "confidence", 0.5)),
		Reasoning:            stringField(fields, "reasoning", "AI classification"),
		SuggestedMaxCommands: maxCommands,
		FollowUpAllowed:      boolField(fields, "follow_up_allowed", false),
		ResponseStyle:        domain.ParseResponseStyle(stringField(fields, "response_style", string(domain.StyleConcise))),
		ClassificationMethod: domain.MethodAI,
	}, nil
}

// extractJSONObject returns the first balanced {...} substring, skipping
// braces that appear inside JSON strings.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			c := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
		// unbalanced from here; try the next opening brace
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// numberField accepts JSON numbers and numeric strings. NaN and infinities
// are treated as missing.
func numberField(fields map[string]any, key string, def float64) float64 {
	var f float64
	switch v := fields[key].(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func stringField(fields map[string]any, key, def string) string {
	if v, ok := fields[key].(string); ok && v != "" {
		return v
	}
	return def
}

func boolField(fields map[string]any, key string, def bool) bool {
	switch v := fields[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	case float64:
		return v != 0
	}
	return def
}
