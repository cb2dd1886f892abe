package domain

// Config mirrors ~/.kubeask/config.yaml.
type Config struct {
	ConfigFormatVersion string             `yaml:"config_format_version" mapstructure:"config_format_version"`
	Preferences         Preferences        `yaml:"preferences" mapstructure:"preferences"`
	Models              []ModelDefinition  `yaml:"models" mapstructure:"models"`
	AI                  AISettings         `yaml:"ai" mapstructure:"ai"`
	Execution           ExecutionSettings  `yaml:"execution" mapstructure:"execution"`
	Kubernetes          KubernetesSettings `yaml:"kubernetes" mapstructure:"kubernetes"`
	Security            SecuritySettings   `yaml:"security" mapstructure:"security"`
	History             HistorySettings    `yaml:"history" mapstructure:"history"`
	Logging             LoggingSettings    `yaml:"logging" mapstructure:"logging"`
}

// Preferences captures user level toggles.
type Preferences struct {
	DefaultModel   string   `yaml:"default_model" mapstructure:"default_model"`
	FallbackModels []string `yaml:"fallback_models,omitempty" mapstructure:"fallback_models"`
	TimeoutSeconds int      `yaml:"timeout" mapstructure:"timeout"`
}

// AISettings tunes the classification fallback.
type AISettings struct {
	ClassificationTimeoutSeconds  int  `yaml:"classification_timeout" mapstructure:"classification_timeout"`
	DisableClassificationFallback bool `yaml:"disable_classification_fallback" mapstructure:"disable_classification_fallback"`
	CacheTTLSeconds               int  `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// ExecutionSettings controls how verified commands run.
type ExecutionSettings struct {
	CommandTimeoutSeconds int    `yaml:"command_timeout" mapstructure:"command_timeout"`
	MaxParallel           int    `yaml:"max_parallel" mapstructure:"max_parallel"`
	MaxFollowUps          int    `yaml:"max_follow_ups" mapstructure:"max_follow_ups"`
	KubectlPath           string `yaml:"kubectl_path,omitempty" mapstructure:"kubectl_path"`
}

// KubernetesSettings selects the cluster kubectl talks to.
type KubernetesSettings struct {
	Kubeconfig string `yaml:"kubeconfig,omitempty" mapstructure:"kubeconfig"`
	Context    string `yaml:"context,omitempty" mapstructure:"context"`
}

// SecuritySettings points at optional extra verifier rules.
type SecuritySettings struct {
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"`
}

// HistorySettings configures the conversation store.
type HistorySettings struct {
	Path          string `yaml:"path,omitempty" mapstructure:"path"`
	RetentionDays int    `yaml:"retention_days" mapstructure:"retention_days"`
	WindowSize    int    `yaml:"window_size" mapstructure:"window_size"`
}

// LoggingSettings configures the zap logger.
type LoggingSettings struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file,omitempty" mapstructure:"file"`
}
