package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/doeshing/kubeask/internal/domain"
)

type weightedPattern struct {
	expr string
	re   *regexp.Regexp
}

// patternGroup adds its deltas once per matching pattern.
type patternGroup struct {
	label           string
	listing         bool
	patterns        []weightedPattern
	scoreDelta      float64
	confidenceDelta float64
}

func compileAll(exprs ...string) []weightedPattern {
	out := make([]weightedPattern, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, weightedPattern{expr: expr, re: regexp.MustCompile(expr)})
	}
	return out
}

var keywordGroups = []patternGroup{
	{
		label: "Deep analysis pattern",
		patterns: compileAll(
			`investigate`, `analyze`, `debug`, `troubleshoot`,
			`what\s+wrong\s+with`, `why\s+is\s+\w+\s+(failing|stuck|crashing)`,
			`root\s+cause`, `diagnose`, `examine\s+in\s+detail`,
		),
		scoreDelta:      0.6,
		confidenceDelta: 0.3,
	},
	{
		label: "Moderate investigation pattern",
		patterns: compileAll(
			`check\s+status`, `verify`, `validate`,
			`health\s+check`, `is\s+\w+\s+(running|working|ok)`,
			`problems?\s+with`, `issues?\s+with`,
		),
		scoreDelta:      0.3,
		confidenceDelta: 0.2,
	},
	{
		label:   "Simple listing pattern",
		listing: true,
		patterns: compileAll(
			`show\s+me`, `list\s+\w+`, `get\s+\w+`,
			`what\s+(pods|deployments|services|namespaces)`,
			`how\s+many`, `display\s+\w+`,
		),
		scoreDelta:      -0.2,
		confidenceDelta: 0.2,
	},
	{
		label:   "Negative pattern",
		listing: true,
		patterns: compileAll(
			`quick\s+check`, `brief\s+overview`, `simple\s+list`,
			`just\s+show`, `only\s+list`,
		),
		scoreDelta:      -0.3,
		confidenceDelta: 0.1,
	},
}

// resourceWeights are applied in this order, and only to questions that are not
// pure listing requests: "show me pods" names a resource without asking for
// any investigation of it.
var resourceWeights = []struct {
	resource string
	weight   float64
}{
	{"pod", 0.1},
	{"deployment", 0.15},
	{"service", 0.1},
	{"namespace", 0.05},
	{"cluster", 0.2},
	{"node", 0.15},
	{"configmap", 0.05},
	{"secret", 0.05},
}

const (
	neutralScore      = 0.5
	neutralConfidence = 0.5
)

// classifyByKeywords scores the message against the weighted keyword tables.
func classifyByKeywords(message string) domain.ClassificationResult {
	lower := strings.ToLower(message)
	score := neutralScore
	confidence := neutralConfidence
	var reasons []string
	listingHits, investigativeHits := 0, 0

	for _, group := range keywordGroups {
		for _, p := range group.patterns {
			if !p.re.MatchString(lower) {
				continue
			}
			score += group.scoreDelta
			confidence += group.confidenceDelta
			reasons = append(reasons, fmt.Sprintf("%s: %s", group.label, p.expr))
			if group.listing {
				listingHits++
			} else {
				investigativeHits++
			}
		}
	}

	if listingHits == 0 || investigativeHits > 0 {
		for _, rw := range resourceWeights {
			if strings.Contains(lower, rw.resource) {
				score += rw.weight
				reasons = append(reasons, fmt.Sprintf("Resource-specific: %s (+%g)", rw.resource, rw.weight))
			}
		}
	}

	score = domain.Clamp01(score)
	confidence = domain.Clamp01(confidence)

	reasoning := "No specific patterns detected"
	if len(reasons) > 0 {
		reasoning = strings.Join(reasons, "; ")
	}

	return domain.ClassificationResult{
		QuestionType:         tierFor(score),
		StrategyType:         domain.StrategySimpleDiscovery,
		ComplexityScore:      score,
		Confidence:           confidence,
		Reasoning:            reasoning,
		SuggestedMaxCommands: 1,
		FollowUpAllowed:      false,
		ResponseStyle:        domain.StyleConcise,
		ClassificationMethod: domain.MethodKeyword,
	}
}

// tierFor maps a score onto the provisional question type.
func tierFor(score float64) domain.QuestionType {
	switch {
	case score >= domain.DeepAnalysisThreshold:
		return domain.QuestionDeepAnalysis
	case score >= domain.ModerateThreshold:
		return domain.QuestionModerateInvestigation
	default:
		return domain.QuestionSimpleListing
	}
}
