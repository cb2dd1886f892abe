// Package domain defines the core entities of kubeask: configuration, model
// definitions, classification results, verification verdicts and conversation records.
package domain

// ProviderKind identifies the wire format spoken by a model endpoint.
type ProviderKind string

const (
	ProviderKindAnthropic  ProviderKind = "anthropic"
	ProviderKindOpenAI     ProviderKind = "openai"
	ProviderKindOpenRouter ProviderKind = "openrouter"
	ProviderKindOllama     ProviderKind = "ollama"
	ProviderKindUnknown    ProviderKind = "unknown"
)

// ModelDefinition describes an AI provider configuration declared in the config file.
type ModelDefinition struct {
	Name       string       `yaml:"name" mapstructure:"name"`
	Provider   ProviderKind `yaml:"provider,omitempty" mapstructure:"provider"`
	Endpoint   string       `yaml:"endpoint" mapstructure:"endpoint"`
	AuthEnvVar string       `yaml:"auth_env_var,omitempty" mapstructure:"auth_env_var"`
	OrgEnvVar  string       `yaml:"org_env_var,omitempty" mapstructure:"org_env_var"`
	ModelID    string       `yaml:"model_id" mapstructure:"model_id"`
	MaxTokens  int          `yaml:"max_tokens,omitempty" mapstructure:"max_tokens"`
}

// PromptMessage follows the role/content pair required by most chat APIs.
type PromptMessage struct {
	Role    string `yaml:"role" json:"role"`
	Content string `yaml:"content" json:"content"`
}

// CompletionPurpose labels why a completion was requested.
type CompletionPurpose string

const (
	PurposeClassify CompletionPurpose = "classify"
	PurposeSuggest  CompletionPurpose = "suggest"
	PurposeFollowUp CompletionPurpose = "follow_up"
	PurposeAnalyze  CompletionPurpose = "analyze"
	PurposePing     CompletionPurpose = "ping"
)

// CompletionRequest is one provider round trip.
type CompletionRequest struct {
	Purpose     CompletionPurpose
	Messages    []PromptMessage
	Temperature float64
	MaxTokens   int
}
