package classifier

import (
	"strings"

	"github.com/doeshing/kubeask/internal/domain"
)

// contextLookback bounds how much history the context rules may see.
const contextLookback = 5

type contextRule struct {
	label           string
	patterns        []weightedPattern
	window          int
	scoreDelta      float64
	confidenceDelta float64
}

// contextRules are checked in order and the first match wins.
var contextRules = []contextRule{
	{
		label:           "Investigation continuation detected",
		patterns:        compileAll(`investigate`, `analyze`, `debug`),
		window:          3,
		scoreDelta:      0.3,
		confidenceDelta: 0.2,
	},
	{
		label:           "Simple browsing pattern detected",
		patterns:        compileAll(`show`, `list`, `get`),
		window:          2,
		scoreDelta:      -0.2,
		confidenceDelta: 0.1,
	},
	{
		label:           "Problem follow-up detected",
		patterns:        compileAll(`error`, `fail`, `wrong`, `issue`),
		window:          4,
		scoreDelta:      0.4,
		confidenceDelta: 0.3,
	},
}

// applyContext adjusts a keyword result using the trailing conversation window.
func applyContext(result domain.ClassificationResult, history []domain.ConversationMessage) domain.ClassificationResult {
	if len(history) == 0 {
		return result
	}
	recent := history
	if len(recent) > contextLookback {
		recent = recent[len(recent)-contextLookback:]
	}

	for _, rule := range contextRules {
		if !rule.matches(recent) {
			continue
		}
		result.ComplexityScore = domain.Clamp01(result.ComplexityScore + rule.scoreDelta)
		result.Confidence = domain.Clamp01(result.Confidence + rule.confidenceDelta)
		result.Reasoning += "; Context: " + rule.label
		break
	}
	return result
}

// matches reports whether at least half the window's user turns hit the rule.
// A history shorter than the window never matches.
func (r contextRule) matches(messages []domain.ConversationMessage) bool {
	if len(messages) < r.window {
		return false
	}
	hits := 0
	for _, msg := range messages[len(messages)-r.window:] {
		if msg.Role != domain.RoleUser {
			continue
		}
		content := strings.ToLower(msg.Message)
		for _, p := range r.patterns {
			if p.re.MatchString(content) {
				hits++
				break
			}
		}
	}
	return hits >= r.window/2
}
