package ai

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

// Factory builds providers and advisors for configured models.
type Factory struct {
	httpClient *http.Client
	observer   LLMObserver
	logger     ports.Logger
	limits     AdvisorOptions
	cache      ports.ReplyCache
}

// FactoryOption customises a Factory.
type FactoryOption func(*Factory)

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) FactoryOption {
	return func(f *Factory) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithObserver records every completion made by advisors from this factory.
func WithObserver(observer LLMObserver) FactoryOption {
	return func(f *Factory) {
		f.observer = observer
	}
}

// WithFactoryLogger sets the logger handed to advisors.
func WithFactoryLogger(logger ports.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithAdvisorLimits sets the classification timeout and command caps of
// advisors built by this factory.
func WithAdvisorLimits(classificationTimeout time.Duration, maxCommands, maxFollowUps int) FactoryOption {
	return func(f *Factory) {
		f.limits = AdvisorOptions{
			ClassificationTimeout: classificationTimeout,
			MaxCommands:           maxCommands,
			MaxFollowUps:          maxFollowUps,
		}
	}
}

// WithReplyCache lets advisors reuse classification replies.
func WithReplyCache(cache ports.ReplyCache) FactoryOption {
	return func(f *Factory) {
		f.cache = cache
	}
}

func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		httpClient: &http.Client{Timeout: domain.DefaultHTTPClientTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) ForModel(model domain.ModelDefinition) (ports.Provider, error) {
	providerKind := ProviderKindFor(model)

	switch providerKind {
	case domain.ProviderKindAnthropic:
		return newHTTPProvider("anthropic", model, f.httpClient, anthropicAdapter()), nil
	case domain.ProviderKindOpenAI:
		return newHTTPProvider("openai", model, f.httpClient, openaiAdapter()), nil
	case domain.ProviderKindOpenRouter:
		return newHTTPProvider("openrouter", model, f.httpClient, openrouterAdapter()), nil
	case domain.ProviderKindOllama:
		return newHTTPProvider("ollama", model, f.httpClient, ollamaAdapter()), nil
	case domain.ProviderKindUnknown:
		return newHeuristicProvider(model), nil
	default:
		return nil, fmt.Errorf("unsupported provider kind: %s", providerKind)
	}
}

// AdvisorFor wraps the model's provider in an Advisor. Models whose API key
// is not set get the offline heuristic provider instead.
func (f *Factory) AdvisorFor(model domain.ModelDefinition) (ports.Advisor, error) {
	var provider ports.Provider
	if APIKeyPresent(model) {
		var err error
		if provider, err = f.ForModel(model); err != nil {
			return nil, err
		}
	} else {
		if f.logger != nil {
			f.logger.Warn("API key missing, answering offline", map[string]interface{}{
				"model":   model.Name,
				"env_var": APIKeyEnv(model),
			})
		}
		provider = newHeuristicProvider(model)
	}
	opts := f.limits
	opts.Observer = f.observer
	opts.Logger = f.logger
	opts.Cache = f.cache
	return NewAdvisor(provider, opts), nil
}

// ProviderKindFor honours an explicit provider and otherwise infers one from the endpoint.
func ProviderKindFor(model domain.ModelDefinition) domain.ProviderKind {
	switch kind := domain.ProviderKind(strings.ToLower(string(model.Provider))); kind {
	case domain.ProviderKindAnthropic, domain.ProviderKindOpenAI, domain.ProviderKindOpenRouter, domain.ProviderKindOllama:
		return kind
	}
	return inferProviderKind(model.Endpoint, model.Name)
}

func inferProviderKind(endpoint string, name string) domain.ProviderKind {
	nameLower := strings.ToLower(name)
	endpoint = strings.ToLower(endpoint)

	switch {
	case endpoint == "":
		return domain.ProviderKindUnknown
	case strings.Contains(endpoint, "anthropic.com"):
		return domain.ProviderKindAnthropic
	case strings.Contains(endpoint, "openrouter.ai"):
		return domain.ProviderKindOpenRouter
	case strings.Contains(endpoint, "openai.com"):
		return domain.ProviderKindOpenAI
	case strings.Contains(nameLower, "ollama"), strings.Contains(endpoint, "11434"), strings.Contains(endpoint, "localhost"):
		return domain.ProviderKindOllama
	default:
		return domain.ProviderKindUnknown
	}
}

var (
	_ ports.ProviderFactory = (*Factory)(nil)
	_ ports.AdvisorFactory  = (*Factory)(nil)
)
