package classifier

import (
	"strings"

	"github.com/doeshing/kubeask/internal/domain"
)

const (
	keywordWeight = 0.4
	aiWeight      = 0.6
)

// merge blends the keyword/context result with the AI result. Categorical
// fields come from whichever side is more confident.
func merge(keyword, ai domain.ClassificationResult) domain.ClassificationResult {
	winner := keyword
	if ai.Confidence > keyword.Confidence {
		winner = ai
	}
	maxCommands := keyword.SuggestedMaxCommands
	if ai.SuggestedMaxCommands > maxCommands {
		maxCommands = ai.SuggestedMaxCommands
	}

	return domain.ClassificationResult{
		QuestionType:         winner.QuestionType,
		StrategyType:         winner.StrategyType,
		ComplexityScore:      domain.Clamp01(keyword.ComplexityScore*keywordWeight + ai.ComplexityScore*aiWeight),
		Confidence:           domain.Clamp01(keyword.Confidence*keywordWeight + ai.Confidence*aiWeight),
		Reasoning:            "Keyword: " + keyword.Reasoning + "; AI: " + ai.Reasoning,
		SuggestedMaxCommands: maxCommands,
		FollowUpAllowed:      keyword.FollowUpAllowed || ai.FollowUpAllowed,
		ResponseStyle:        winner.ResponseStyle,
		ClassificationMethod: domain.MethodHybrid,
	}
}

// resolveStrategy re-derives every categorical field from the final score so
// the result is internally consistent regardless of the path taken.
func resolveStrategy(result domain.ClassificationResult) domain.ClassificationResult {
	switch {
	case result.ComplexityScore >= domain.DeepAnalysisThreshold:
		result.QuestionType = domain.QuestionDeepAnalysis
		result.StrategyType = domain.StrategyDeepAnalysis
		result.SuggestedMaxCommands = max(3, result.SuggestedMaxCommands)
		result.FollowUpAllowed = true
		result.ResponseStyle = domain.StyleComprehensive
	case result.ComplexityScore >= domain.ModerateThreshold:
		result.QuestionType = domain.QuestionModerateInvestigation
		result.StrategyType = domain.StrategyModerateInvestigation
		result.SuggestedMaxCommands = max(2, result.SuggestedMaxCommands)
		result.FollowUpAllowed = true
		result.ResponseStyle = domain.StyleDetailed
	default:
		result.QuestionType = domain.QuestionSimpleListing
		result.StrategyType = domain.StrategySimpleDiscovery
		result.SuggestedMaxCommands = 1
		result.FollowUpAllowed = false
		result.ResponseStyle = domain.StyleConcise
	}
	// the AI side may suggest up to four
	if result.SuggestedMaxCommands > 4 {
		result.SuggestedMaxCommands = 4
	}
	return result
}

var fallbackTriggers = []string{"wrong", "error", "fail", "investigate"}

// Fallback is the last-resort classification used when the pipeline or the
// AI collaborator fails.
func Fallback(message string) domain.ClassificationResult {
	lower := strings.ToLower(message)
	for _, word := range fallbackTriggers {
		if strings.Contains(lower, word) {
			return domain.ClassificationResult{
				QuestionType:         domain.QuestionModerateInvestigation,
				StrategyType:         domain.StrategyModerateInvestigation,
				ComplexityScore:      0.6,
				Confidence:           0.3,
				Reasoning:            "Fallback classification due to error",
				SuggestedMaxCommands: 2,
				FollowUpAllowed:      true,
				ResponseStyle:        domain.StyleDetailed,
				ClassificationMethod: domain.MethodFallback,
			}
		}
	}
	return domain.ClassificationResult{
		QuestionType:         domain.QuestionSimpleListing,
		StrategyType:         domain.StrategySimpleDiscovery,
		ComplexityScore:      0.3,
		Confidence:           0.3,
		Reasoning:            "Fallback classification due to error",
		SuggestedMaxCommands: 1,
		FollowUpAllowed:      false,
		ResponseStyle:        domain.StyleConcise,
		ClassificationMethod: domain.MethodFallback,
	}
}
