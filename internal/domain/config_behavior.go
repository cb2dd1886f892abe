package domain

import (
	"fmt"
	"time"
)

// GetDefaultModel retrieves the default model definition.
func (c *Config) GetDefaultModel() (ModelDefinition, error) {
	if c.Preferences.DefaultModel == "" {
		return ModelDefinition{}, fmt.Errorf("no default model configured")
	}
	if model, ok := c.FindModelByName(c.Preferences.DefaultModel); ok {
		return model, nil
	}
	return ModelDefinition{}, fmt.Errorf("default model %s not found in configuration", c.Preferences.DefaultModel)
}

// ResolveModel picks the override, then the default, then the first configured model.
func (c *Config) ResolveModel(override string) (ModelDefinition, error) {
	name := override
	if name == "" {
		name = c.Preferences.DefaultModel
	}
	if name == "" && len(c.Models) > 0 {
		return c.Models[0], nil
	}
	if model, ok := c.FindModelByName(name); ok {
		return model, nil
	}
	return ModelDefinition{}, fmt.Errorf("model %s not configured", name)
}

// FindModelByName searches for a model by its name.
func (c *Config) FindModelByName(name string) (ModelDefinition, bool) {
	for _, model := range c.Models {
		if model.Name == name {
			return model, true
		}
	}
	return ModelDefinition{}, false
}

// HasModel checks if a model with the given name exists in the configuration.
func (c *Config) HasModel(name string) bool {
	_, exists := c.FindModelByName(name)
	return exists
}

// AddModel adds a new model; names must be unique.
func (c *Config) AddModel(model ModelDefinition) error {
	if c.HasModel(model.Name) {
		return fmt.Errorf("model with name %s already exists", model.Name)
	}
	c.Models = append(c.Models, model)
	return nil
}

// RemoveModel removes a model and repairs the default and fallback references.
func (c *Config) RemoveModel(name string) error {
	idx := -1
	for i, model := range c.Models {
		if model.Name == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("model %s not found", name)
	}

	c.Models = append(c.Models[:idx], c.Models[idx+1:]...)

	if c.Preferences.DefaultModel == name {
		c.Preferences.DefaultModel = ""
		if len(c.Models) > 0 {
			c.Preferences.DefaultModel = c.Models[0].Name
		}
	}

	var fallbacks []string
	for _, fallback := range c.Preferences.FallbackModels {
		if fallback != name {
			fallbacks = append(fallbacks, fallback)
		}
	}
	c.Preferences.FallbackModels = fallbacks
	return nil
}

// SetDefaultModel changes the default model to an existing model.
func (c *Config) SetDefaultModel(name string) error {
	if !c.HasModel(name) {
		return fmt.Errorf("cannot set default model: model %s does not exist", name)
	}
	c.Preferences.DefaultModel = name
	return nil
}

// GetFallbackModels returns the fallback models that actually exist.
func (c *Config) GetFallbackModels() []ModelDefinition {
	var models []ModelDefinition
	for _, name := range c.Preferences.FallbackModels {
		if model, ok := c.FindModelByName(name); ok {
			models = append(models, model)
		}
	}
	return models
}

// RequestTimeout bounds a whole chat round trip.
func (c *Config) RequestTimeout() time.Duration {
	return secondsOrDefault(c.Preferences.TimeoutSeconds, DefaultRequestTimeout)
}

// ClassificationTimeout bounds the AI classification call.
func (c *Config) ClassificationTimeout() time.Duration {
	return secondsOrDefault(c.AI.ClassificationTimeoutSeconds, DefaultClassificationTimeout)
}

// ClassificationCacheTTL is how long AI classification replies are reused.
// Zero disables the cache.
func (c *Config) ClassificationCacheTTL() time.Duration {
	if c.AI.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.AI.CacheTTLSeconds) * time.Second
}

// CommandTimeout bounds a single kubectl invocation.
func (c *Config) CommandTimeout() time.Duration {
	return secondsOrDefault(c.Execution.CommandTimeoutSeconds, DefaultCommandTimeout)
}

// MaxParallelCommands returns how many verified commands may run at once.
func (c *Config) MaxParallelCommands() int {
	if c.Execution.MaxParallel <= 0 {
		return DefaultMaxParallelCommands
	}
	return c.Execution.MaxParallel
}

// MaxFollowUpCommands caps the second investigation round.
func (c *Config) MaxFollowUpCommands() int {
	if c.Execution.MaxFollowUps <= 0 {
		return DefaultMaxFollowUpCommands
	}
	return c.Execution.MaxFollowUps
}

// HistoryWindow is how many stored messages are loaded as conversation context.
func (c *Config) HistoryWindow() int {
	if c.History.WindowSize <= 0 {
		return DefaultHistoryWindow
	}
	return c.History.WindowSize
}

// GetHistoryRetentionDays returns the number of days to retain history.
func (c *Config) GetHistoryRetentionDays() int {
	if c.History.RetentionDays <= 0 {
		return DefaultHistoryRetainDays
	}
	return c.History.RetentionDays
}

// ValidateConsistency checks cross references inside the configuration.
func (c *Config) ValidateConsistency() error {
	if c.Preferences.DefaultModel != "" && len(c.Models) == 0 {
		return fmt.Errorf("default model is set but no models are configured")
	}
	if c.Preferences.DefaultModel != "" && !c.HasModel(c.Preferences.DefaultModel) {
		return fmt.Errorf("default model %s does not exist in models list", c.Preferences.DefaultModel)
	}
	for _, name := range c.Preferences.FallbackModels {
		if !c.HasModel(name) {
			return fmt.Errorf("fallback model %s does not exist in models list", name)
		}
	}
	return nil
}

func secondsOrDefault(seconds int, def time.Duration) time.Duration {
	if seconds <= 0 {
		return def
	}
	return time.Duration(seconds) * time.Second
}
