// Package classifier decides how deep an investigation a question warrants.
//
// The pipeline is keyword scoring, then a context adjustment from recent
// conversation turns, then an optional AI second opinion when confidence is
// low, and finally a strategy pass that derives every categorical field from
// the final complexity score. Classify never returns an error.
package classifier

import (
	"context"
	"fmt"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

// aiConfidenceThreshold is the confidence below which the AI is consulted.
const aiConfidenceThreshold = 0.7

// Classifier implements ports.QuestionClassifier. It holds no mutable state.
type Classifier struct {
	ai      ports.AIClassifier
	logger  ports.Logger
	metrics ports.MetricsRecorder
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithAI enables the AI fallback. A nil collaborator disables it.
func WithAI(ai ports.AIClassifier) Option {
	return func(c *Classifier) { c.ai = ai }
}

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(c *Classifier) { c.logger = logger }
}

// WithMetrics records every classification.
func WithMetrics(metrics ports.MetricsRecorder) Option {
	return func(c *Classifier) { c.metrics = metrics }
}

// New builds a classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify produces a classification for message given the conversation so
// far (oldest first). Any internal failure yields Fallback(message).
func (c *Classifier) Classify(ctx context.Context, message string, history []domain.ConversationMessage) (result domain.ClassificationResult) {
	defer func() {
		if r := recover(); r != nil {
			c.warn("classification panicked, using fallback", map[string]interface{}{"panic": fmt.Sprint(r)})
			result = Fallback(message)
		}
		c.observe(result)
	}()

	result = applyContext(classifyByKeywords(message), history)

	if result.Confidence < aiConfidenceThreshold && c.ai != nil {
		c.debug("low confidence, consulting AI", map[string]interface{}{"confidence": result.Confidence})
		aiResult, err := classifyWithAI(ctx, c.ai, message, history)
		if err != nil {
			c.warn("AI classification failed, using fallback for AI side", map[string]interface{}{"error": err.Error()})
			aiResult = Fallback(message)
		}
		result = merge(result, aiResult)
	} else {
		result.ClassificationMethod = domain.MethodKeywordContext
	}

	return resolveStrategy(result)
}

func (c *Classifier) observe(result domain.ClassificationResult) {
	if c.metrics != nil {
		c.metrics.ObserveClassification(result)
	}
	if c.logger != nil {
		c.logger.Info("question classified", map[string]interface{}{
			"question_type": result.QuestionType,
			"score":         result.ComplexityScore,
			"confidence":    result.Confidence,
			"method":        result.ClassificationMethod,
			"max_commands":  result.SuggestedMaxCommands,
		})
	}
}

func (c *Classifier) debug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

func (c *Classifier) warn(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, fields)
	}
}

var _ ports.QuestionClassifier = (*Classifier)(nil)
