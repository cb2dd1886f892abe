// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The chat service, doctor and CLI depend on these
// abstractions; SQLite, kubectl, the LLM HTTP clients and zap live behind them.
package ports

import (
	"context"
	"time"

	"github.com/doeshing/kubeask/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.kubeask/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
	Path() string
}

// ProviderFactory builds AI provider instances based on model definitions.
type ProviderFactory interface {
	ForModel(domain.ModelDefinition) (Provider, error)
}

// Provider is a single LLM backend: given a prompt, it returns text.
type Provider interface {
	Name() string
	Model() domain.ModelDefinition
	Complete(context.Context, domain.CompletionRequest) (string, error)
}

// AIClassifier answers a classification prompt with free text that is
// expected to contain a JSON object. It owns its own timeout.
type AIClassifier interface {
	ClassifyQuestion(ctx context.Context, prompt string) (string, error)
}

// AdvisorRequest is the context handed to the command advisor.
type AdvisorRequest struct {
	Question       string
	History        []domain.ConversationMessage
	Classification domain.ClassificationResult
	Cluster        domain.ClusterInfo
}

// CommandAdvisor proposes kubectl commands and summarises their output.
// Proposed commands are untrusted and must be verified before execution.
type CommandAdvisor interface {
	SuggestCommands(ctx context.Context, req AdvisorRequest) ([]string, error)
	SuggestFollowUpCommands(ctx context.Context, req AdvisorRequest, outputs []domain.CommandOutput) ([]string, error)
	AnalyzeOutputs(ctx context.Context, req AdvisorRequest, outputs []domain.CommandOutput) (string, error)
}

// Advisor bundles both LLM roles backed by one model.
type Advisor interface {
	AIClassifier
	CommandAdvisor
}

// AdvisorFactory builds an advisor for the resolved model.
type AdvisorFactory interface {
	AdvisorFor(domain.ModelDefinition) (Advisor, error)
}

// QuestionClassifier bounds how deep an investigation goes. It never fails.
type QuestionClassifier interface {
	Classify(ctx context.Context, message string, history []domain.ConversationMessage) domain.ClassificationResult
}

// CommandVerifier decides whether a proposed command may run.
type CommandVerifier interface {
	Sanitize(command string) string
	Verify(command string) domain.VerificationOutcome
	HasPlaceholders(command string) (bool, string)
	IsSafeCommand(command string) (bool, string)
	SafeCommandsInfo() domain.SafeCommandsInfo
}

// CommandExecutor runs kubectl with an argument list that excludes the program name.
type CommandExecutor interface {
	Run(ctx context.Context, args []string, timeout time.Duration) domain.ExecutionResult
}

// KubeContextReader resolves the kubeconfig context kubectl will use.
type KubeContextReader interface {
	Current(kubeconfig, contextName string) (domain.ClusterInfo, error)
}

// ReplyCache stores model replies by key.
type ReplyCache interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// ConversationRepository persists sessions and their messages.
type ConversationRepository interface {
	EnsureSession(ctx context.Context, sessionID string) (domain.Session, error)
	Append(ctx context.Context, sessionID string, msg domain.ConversationMessage) error
	Conversation(ctx context.Context, sessionID string, limit int) ([]domain.ConversationMessage, error)
	Sessions(ctx context.Context) ([]domain.Session, error)
	Clear(ctx context.Context, sessionID string) error
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
	Close() error
}

// MetricsRecorder observes the core decisions.
type MetricsRecorder interface {
	ObserveClassification(domain.ClassificationResult)
	ObserveVerification(domain.VerificationOutcome)
	ObserveExecution(domain.ExecutionResult)
}

// Logger provides structured logging abstraction for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
