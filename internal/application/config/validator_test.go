package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doeshing/kubeask/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		Preferences: domain.Preferences{DefaultModel: "router"},
		Models: []domain.ModelDefinition{
			{Name: "router", Provider: domain.ProviderKindOpenRouter},
			{Name: "offline"},
		},
		Logging: domain.LoggingSettings{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*domain.Config) {}},
		{name: "no models", mutate: func(c *domain.Config) { c.Models = nil }, wantErr: "at least one model"},
		{name: "unnamed model", mutate: func(c *domain.Config) { c.Models[1].Name = " " }, wantErr: "models[1].name"},
		{name: "duplicate model", mutate: func(c *domain.Config) { c.Models[1].Name = "router" }, wantErr: "defined twice"},
		{name: "unknown provider", mutate: func(c *domain.Config) { c.Models[0].Provider = "gemini" }, wantErr: "unsupported provider"},
		{name: "missing default", mutate: func(c *domain.Config) { c.Preferences.DefaultModel = "nope" }, wantErr: "default model nope"},
		{name: "missing fallback", mutate: func(c *domain.Config) { c.Preferences.FallbackModels = []string{"nope"} }, wantErr: "fallback model nope"},
		{name: "negative parallel", mutate: func(c *domain.Config) { c.Execution.MaxParallel = -1 }, wantErr: "max_parallel"},
		{name: "negative window", mutate: func(c *domain.Config) { c.History.WindowSize = -2 }, wantErr: "window_size"},
		{name: "bad log level", mutate: func(c *domain.Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
