package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

// ErrMissingAPIKey is returned before any network call when no key is set.
var ErrMissingAPIKey = errors.New("missing API key")

// maxErrorBody bounds how much of an error response ends up in the error text.
const maxErrorBody = 512

type httpProvider struct {
	name       string
	model      domain.ModelDefinition
	httpClient *http.Client
	adapter    providerAdapter
}

type providerAdapter struct {
	buildRequest  func(domain.ModelDefinition, domain.CompletionRequest) ([]byte, error)
	parseResponse func([]byte) (string, error)
	setHeaders    func(*http.Request, domain.ModelDefinition) error
}

func newHTTPProvider(name string, model domain.ModelDefinition, client *http.Client, adapter providerAdapter) ports.Provider {
	return &httpProvider{
		name:       name,
		model:      model,
		httpClient: client,
		adapter:    adapter,
	}
}

func (p *httpProvider) Name() string {
	return p.name
}

func (p *httpProvider) Model() domain.ModelDefinition {
	return p.model
}

func (p *httpProvider) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("%s: empty prompt", p.name)
	}

	requestBody, err := p.adapter.buildRequest(p.model, req)
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", p.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.model.Endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return "", err
	}

	httpReq.Header.Set("content-type", "application/json")
	if err := p.adapter.setHeaders(httpReq, p.model); err != nil {
		return "", err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", p.name, err)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%s: %s: %s", p.name, resp.Status, truncate(strings.TrimSpace(string(body)), maxErrorBody))
	}

	content, err := p.adapter.parseResponse(body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.name, err)
	}
	if content == "" {
		return "", fmt.Errorf("%s: empty completion", p.name)
	}
	return content, nil
}

func anthropicAdapter() providerAdapter {
	return providerAdapter{
		buildRequest:  buildAnthropicRequest,
		parseResponse: parseAnthropicResponse,
		setHeaders:    setAnthropicHeaders,
	}
}

func openaiAdapter() providerAdapter {
	return providerAdapter{
		buildRequest:  buildChatCompletionRequest,
		parseResponse: parseChatCompletionResponse,
		setHeaders:    setOpenAIHeaders,
	}
}

func openrouterAdapter() providerAdapter {
	return providerAdapter{
		buildRequest:  buildChatCompletionRequest,
		parseResponse: parseChatCompletionResponse,
		setHeaders:    setOpenRouterHeaders,
	}
}

func ollamaAdapter() providerAdapter {
	return providerAdapter{
		buildRequest:  buildChatCompletionRequest,
		parseResponse: parseChatCompletionResponse,
		setHeaders:    setOllamaHeaders,
	}
}

func buildAnthropicRequest(model domain.ModelDefinition, req domain.CompletionRequest) ([]byte, error) {
	system, messages := splitSystemMessages(req.Messages)
	if len(messages) == 0 {
		return nil, errors.New("anthropic requires at least one non-system message")
	}

	return json.Marshal(anthropicRequest{
		Model:       defaultString(model.ModelID, "claude-3-5-sonnet-20240620"),
		MaxTokens:   firstPositive(req.MaxTokens, model.MaxTokens, domain.DefaultMaxTokens),
		System:      system,
		Messages:    messages,
		Temperature: req.Temperature,
	})
}

func splitSystemMessages(messages []domain.PromptMessage) (string, []anthropicMessage) {
	var systemLines []string
	var chatMessages []anthropicMessage

	for _, msg := range messages {
		if strings.EqualFold(msg.Role, "system") {
			systemLines = append(systemLines, msg.Content)
			continue
		}
		chatMessages = append(chatMessages, anthropicMessage{
			Role:    strings.ToLower(msg.Role),
			Content: []anthropicContent{{Type: "text", Text: msg.Content}},
		})
	}

	return strings.TrimSpace(strings.Join(systemLines, "\n")), chatMessages
}

func parseAnthropicResponse(body []byte) (string, error) {
	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("anthropic error %s: %s", response.Error.Type, response.Error.Message)
	}
	return response.Text(), nil
}

func setAnthropicHeaders(req *http.Request, model domain.ModelDefinition) error {
	apiKey := getEnv(model.AuthEnvVar, "ANTHROPIC_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("%w: set %s", ErrMissingAPIKey, defaultString(model.AuthEnvVar, "ANTHROPIC_API_KEY"))
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	return nil
}

func buildChatCompletionRequest(model domain.ModelDefinition, req domain.CompletionRequest) ([]byte, error) {
	chatMessages := make([]chatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		chatMessages = append(chatMessages, chatMessage{
			Role:    strings.ToLower(msg.Role),
			Content: msg.Content,
		})
	}

	return json.Marshal(chatCompletionRequest{
		Model:       model.ModelID,
		Messages:    chatMessages,
		MaxTokens:   firstPositive(req.MaxTokens, model.MaxTokens),
		Temperature: req.Temperature,
	})
}

func parseChatCompletionResponse(body []byte) (string, error) {
	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("api error: %s", response.Error.Message)
	}
	return response.FirstMessage(), nil
}

func setOpenAIHeaders(req *http.Request, model domain.ModelDefinition) error {
	apiKey := getEnv(model.AuthEnvVar, "OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("%w: set %s", ErrMissingAPIKey, defaultString(model.AuthEnvVar, "OPENAI_API_KEY"))
	}
	req.Header.Set("authorization", "Bearer "+apiKey)

	if org := getEnv(model.OrgEnvVar, "OPENAI_ORG_ID"); org != "" {
		req.Header.Set("OpenAI-Organization", org)
	}
	return nil
}

func setOpenRouterHeaders(req *http.Request, model domain.ModelDefinition) error {
	apiKey := getEnv(model.AuthEnvVar, "OPENROUTER_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("%w: set %s", ErrMissingAPIKey, defaultString(model.AuthEnvVar, "OPENROUTER_API_KEY"))
	}
	req.Header.Set("authorization", "Bearer "+apiKey)
	req.Header.Set("HTTP-Referer", "https://github.com/doeshing/kubeask")
	req.Header.Set("X-Title", "kubeask")
	return nil
}

// Ollama only needs a key when it sits behind an authenticating proxy.
func setOllamaHeaders(req *http.Request, model domain.ModelDefinition) error {
	if apiKey := getEnv(model.AuthEnvVar, ""); apiKey != "" {
		req.Header.Set("authorization", "Bearer "+apiKey)
	}
	return nil
}

// APIKeyEnv reports which variable a model reads its key from. Empty means
// the provider needs no key.
func APIKeyEnv(model domain.ModelDefinition) string {
	if model.AuthEnvVar != "" {
		return model.AuthEnvVar
	}
	return defaultKeyEnv(ProviderKindFor(model))
}

// APIKeyPresent reports whether the model can authenticate.
func APIKeyPresent(model domain.ModelDefinition) bool {
	kind := ProviderKindFor(model)
	if kind == domain.ProviderKindOllama || kind == domain.ProviderKindUnknown {
		return true
	}
	return getEnv(model.AuthEnvVar, defaultKeyEnv(kind)) != ""
}

func defaultKeyEnv(kind domain.ProviderKind) string {
	switch kind {
	case domain.ProviderKindAnthropic:
		return "ANTHROPIC_API_KEY"
	case domain.ProviderKindOpenAI:
		return "OPENAI_API_KEY"
	case domain.ProviderKindOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}

func getEnv(primary, fallback string) string {
	if primary != "" {
		if value := os.Getenv(primary); value != "" {
			return value
		}
	}
	if fallback != "" {
		return os.Getenv(fallback)
	}
	return ""
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
