package domain

import (
	"math"
	"strings"
)

// QuestionType is the investigative depth a question warrants.
type QuestionType string

const (
	QuestionSimpleListing         QuestionType = "simple_listing"
	QuestionModerateInvestigation QuestionType = "moderate_investigation"
	QuestionDeepAnalysis          QuestionType = "deep_analysis"
	QuestionUnknown               QuestionType = "unknown"
)

// StrategyType is the execution strategy chosen for a question.
// It parallels QuestionType but is resolved as a separate step.
type StrategyType string

const (
	StrategySimpleDiscovery       StrategyType = "simple_discovery"
	StrategyModerateInvestigation StrategyType = "moderate_investigation"
	StrategyDeepAnalysis          StrategyType = "deep_analysis"
)

// ResponseStyle controls how verbose the final answer should be.
type ResponseStyle string

const (
	StyleConcise       ResponseStyle = "concise"
	StyleDetailed      ResponseStyle = "detailed"
	StyleComprehensive ResponseStyle = "comprehensive"
)

// ClassificationMethod records which pipeline path produced a classification.
type ClassificationMethod string

const (
	MethodKeyword        ClassificationMethod = "keyword"
	MethodAI             ClassificationMethod = "ai"
	MethodKeywordContext ClassificationMethod = "keyword_context"
	MethodHybrid         ClassificationMethod = "hybrid"
	MethodFallback       ClassificationMethod = "fallback"
)

// Score tier boundaries shared by every classification stage.
const (
	DeepAnalysisThreshold = 0.7
	ModerateThreshold     = 0.4
)

// ClassificationResult is produced fresh for every user message.
type ClassificationResult struct {
	QuestionType         QuestionType         `json:"question_type"`
	StrategyType         StrategyType         `json:"strategy_type"`
	ComplexityScore      float64              `json:"complexity_score"`
	Confidence           float64              `json:"confidence"`
	Reasoning            string               `json:"reasoning"`
	SuggestedMaxCommands int                  `json:"suggested_max_commands"`
	FollowUpAllowed      bool                 `json:"follow_up_allowed"`
	ResponseStyle        ResponseStyle        `json:"response_style"`
	ClassificationMethod ClassificationMethod `json:"classification_method"`
}

// IsInvestigative reports whether the question type permits follow-up rounds.
func (r ClassificationResult) IsInvestigative() bool {
	return r.QuestionType == QuestionModerateInvestigation || r.QuestionType == QuestionDeepAnalysis
}

// ParseQuestionType maps a wire value onto a QuestionType.
// Unrecognized values map to QuestionUnknown.
func ParseQuestionType(value string) QuestionType {
	switch QuestionType(strings.ToLower(strings.TrimSpace(value))) {
	case QuestionSimpleListing:
		return QuestionSimpleListing
	case QuestionModerateInvestigation:
		return QuestionModerateInvestigation
	case QuestionDeepAnalysis:
		return QuestionDeepAnalysis
	default:
		return QuestionUnknown
	}
}

// Strategy returns the strategy paired with a question type.
// Unknown questions get the cheapest strategy.
func (q QuestionType) Strategy() StrategyType {
	switch q {
	case QuestionModerateInvestigation:
		return StrategyModerateInvestigation
	case QuestionDeepAnalysis:
		return StrategyDeepAnalysis
	default:
		return StrategySimpleDiscovery
	}
}

// ParseResponseStyle maps a wire value onto a ResponseStyle, defaulting to concise.
func ParseResponseStyle(value string) ResponseStyle {
	switch ResponseStyle(strings.ToLower(strings.TrimSpace(value))) {
	case StyleDetailed:
		return StyleDetailed
	case StyleComprehensive:
		return StyleComprehensive
	default:
		return StyleConcise
	}
}

// Clamp01 bounds a score or confidence to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
