// Package config validates a loaded configuration before it is used.
package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/doeshing/kubeask/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if len(cfg.Models) == 0 {
		return errors.New("at least one model must be configured")
	}
	if err := validateModels(cfg.Models); err != nil {
		return err
	}
	if err := cfg.ValidateConsistency(); err != nil {
		return err
	}
	if err := validateExecution(cfg.Execution); err != nil {
		return err
	}
	if cfg.AI.ClassificationTimeoutSeconds < 0 {
		return fmt.Errorf("ai.classification_timeout must be >= 0")
	}
	if cfg.AI.CacheTTLSeconds < 0 {
		return fmt.Errorf("ai.cache_ttl must be >= 0")
	}
	if cfg.Preferences.TimeoutSeconds < 0 {
		return fmt.Errorf("preferences.timeout must be >= 0")
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	return validateLogging(cfg.Logging)
}

func validateModels(models []domain.ModelDefinition) error {
	seen := make(map[string]struct{}, len(models))
	for i, model := range models {
		if strings.TrimSpace(model.Name) == "" {
			return fmt.Errorf("models[%d].name must be set", i)
		}
		if _, dup := seen[model.Name]; dup {
			return fmt.Errorf("model %s is defined twice", model.Name)
		}
		seen[model.Name] = struct{}{}

		switch domain.ProviderKind(strings.ToLower(string(model.Provider))) {
		case "", domain.ProviderKindAnthropic, domain.ProviderKindOpenAI,
			domain.ProviderKindOpenRouter, domain.ProviderKindOllama, domain.ProviderKindUnknown:
		default:
			return fmt.Errorf("model %s: unsupported provider %q", model.Name, model.Provider)
		}
		if model.MaxTokens < 0 {
			return fmt.Errorf("model %s: max_tokens must be >= 0", model.Name)
		}
	}
	return nil
}

func validateExecution(exec domain.ExecutionSettings) error {
	if exec.CommandTimeoutSeconds < 0 {
		return fmt.Errorf("execution.command_timeout must be >= 0")
	}
	if exec.MaxParallel < 0 {
		return fmt.Errorf("execution.max_parallel must be >= 0")
	}
	if exec.MaxFollowUps < 0 {
		return fmt.Errorf("execution.max_follow_ups must be >= 0")
	}
	return nil
}

func validateHistory(history domain.HistorySettings) error {
	if history.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days must be >= 0")
	}
	if history.WindowSize < 0 {
		return fmt.Errorf("history.window_size must be >= 0")
	}
	return nil
}

func validateLogging(logging domain.LoggingSettings) error {
	if logging.Level == "" {
		return nil
	}
	if _, err := zapcore.ParseLevel(logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
