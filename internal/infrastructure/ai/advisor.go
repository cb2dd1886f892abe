package ai

import (
	"context"
	"time"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/infrastructure/cache"
	"github.com/doeshing/kubeask/internal/ports"
)

// LLMObserver records provider round trips. *metrics.Recorder satisfies it.
type LLMObserver interface {
	ObserveLLM(provider, purpose string, err error, elapsed time.Duration)
}

// AdvisorOptions tunes an Advisor. Zero values fall back to defaults.
type AdvisorOptions struct {
	Observer              LLMObserver
	Logger                ports.Logger
	Cache                 ports.ReplyCache
	ClassificationTimeout time.Duration
	MaxCommands           int
	MaxFollowUps          int
}

// Advisor turns a Provider into the classifier and command advisor roles.
type Advisor struct {
	provider ports.Provider
	observer LLMObserver
	logger   ports.Logger
	cache    ports.ReplyCache

	classificationTimeout time.Duration
	maxCommands           int
	maxFollowUps          int
}

func NewAdvisor(provider ports.Provider, opts AdvisorOptions) *Advisor {
	a := &Advisor{
		provider:              provider,
		observer:              opts.Observer,
		logger:                opts.Logger,
		cache:                 opts.Cache,
		classificationTimeout: opts.ClassificationTimeout,
		maxCommands:           opts.MaxCommands,
		maxFollowUps:          opts.MaxFollowUps,
	}
	if a.classificationTimeout <= 0 {
		a.classificationTimeout = domain.DefaultClassificationTimeout
	}
	if a.maxCommands <= 0 || a.maxCommands > domain.MaxSuggestedCommands {
		a.maxCommands = domain.MaxSuggestedCommands
	}
	if a.maxFollowUps <= 0 {
		a.maxFollowUps = domain.DefaultMaxFollowUpCommands
	}
	return a
}

// Provider exposes the backing provider.
func (a *Advisor) Provider() ports.Provider {
	return a.provider
}

// Offline reports whether the advisor runs on the heuristic provider.
func (a *Advisor) Offline() bool {
	return a.provider.Name() == HeuristicName
}

// ClassifyQuestion sends the classifier prompt and returns the raw reply.
// Replies are reused from the cache when one is configured.
func (a *Advisor) ClassifyQuestion(ctx context.Context, prompt string) (string, error) {
	key := cache.Key(a.provider.Name(), a.provider.Model().Name, a.provider.Model().ModelID, prompt)
	if a.cache != nil {
		if reply, ok, err := a.cache.Get(key); err == nil && ok {
			return reply, nil
		} else if err != nil {
			a.warn("classification cache read failed", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.classificationTimeout)
	defer cancel()

	reply, err := a.complete(ctx, domain.CompletionRequest{
		Purpose: domain.PurposeClassify,
		Messages: []domain.PromptMessage{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   300,
	})
	if err != nil {
		return "", err
	}
	if a.cache != nil {
		if err := a.cache.Set(key, reply); err != nil {
			a.warn("classification cache write failed", err)
		}
	}
	return reply, nil
}

// SuggestCommands asks for discovery commands. The result is untrusted.
func (a *Advisor) SuggestCommands(ctx context.Context, req ports.AdvisorRequest) ([]string, error) {
	limit := a.maxCommands
	if n := req.Classification.SuggestedMaxCommands; n > 0 && n < limit {
		limit = n
	}

	system, err := render(suggestTemplate, newPromptData(req, limit, nil))
	if err != nil {
		return nil, err
	}
	reply, err := a.complete(ctx, domain.CompletionRequest{
		Purpose:     domain.PurposeSuggest,
		Messages:    buildMessages(system, req.History, req.Question),
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, err
	}

	commands, err := parseCommandList(reply, limit)
	if err != nil {
		a.warn("could not parse suggested commands", err)
		return nil, err
	}
	a.debug("suggested commands", map[string]interface{}{"commands": commands})
	return commands, nil
}

// SuggestFollowUpCommands proposes at most a couple of commands based on
// discovery output.
func (a *Advisor) SuggestFollowUpCommands(ctx context.Context, req ports.AdvisorRequest, outputs []domain.CommandOutput) ([]string, error) {
	data := newPromptData(req, a.maxFollowUps, outputs)
	system, err := render(followUpTemplate, data)
	if err != nil {
		return nil, err
	}
	user, err := render(followUpUserTemplate, data)
	if err != nil {
		return nil, err
	}

	reply, err := a.complete(ctx, domain.CompletionRequest{
		Purpose:     domain.PurposeFollowUp,
		Messages:    buildMessages(system, req.History, user),
		Temperature: 0.2,
		MaxTokens:   300,
	})
	if err != nil {
		return nil, err
	}

	commands, err := parseCommandList(reply, a.maxFollowUps)
	if err != nil {
		a.warn("could not parse follow-up commands", err)
		return nil, err
	}
	return commands, nil
}

// AnalyzeOutputs writes the final answer. With no outputs it answers as
// advice. Provider failures degrade to a local summary, never an error.
func (a *Advisor) AnalyzeOutputs(ctx context.Context, req ports.AdvisorRequest, outputs []domain.CommandOutput) (string, error) {
	data := newPromptData(req, a.maxCommands, outputs)

	var system, user string
	var err error
	if len(outputs) == 0 {
		system, err = render(adviceTemplate, data)
		user = "Question: " + data.Question
	} else {
		system, err = render(analysisTemplate, data)
		if err == nil {
			user, err = render(analysisUserTemplate, data)
		}
	}
	if err != nil {
		return "", err
	}

	reply, err := a.complete(ctx, domain.CompletionRequest{
		Purpose:     domain.PurposeAnalyze,
		Messages:    buildMessages(system, req.History, user),
		Temperature: 0.7,
		MaxTokens:   1500,
	})
	if err != nil {
		a.warn("analysis failed, using local summary", err)
		if len(outputs) == 0 {
			return localAdvice(data.Question), nil
		}
		return localAnalysis(data.Question, outputs), nil
	}
	return reply, nil
}

func (a *Advisor) complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	start := time.Now()
	reply, err := a.provider.Complete(ctx, req)
	if a.observer != nil {
		a.observer.ObserveLLM(a.provider.Name(), string(req.Purpose), err, time.Since(start))
	}
	return reply, err
}

func (a *Advisor) warn(msg string, err error) {
	if a.logger != nil {
		a.logger.Warn(msg, map[string]interface{}{"provider": a.provider.Name(), "error": err.Error()})
	}
}

func (a *Advisor) debug(msg string, fields map[string]interface{}) {
	if a.logger != nil {
		a.logger.Debug(msg, fields)
	}
}

var _ ports.Advisor = (*Advisor)(nil)
