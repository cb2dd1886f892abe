// Package config loads ~/.kubeask/config.yaml through viper.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/kubeask/assets"
	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/pkg/filesystem"
	"github.com/doeshing/kubeask/internal/ports"
)

const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "KUBEASK_CONFIG"
	envPrefix     = "KUBEASK"
	configDirName = ".kubeask"
)

// FileLoader loads YAML configuration from ~/.kubeask/config.yaml
// (overridable via KUBEASK_CONFIG). KUBEASK_* variables override file values,
// e.g. KUBEASK_EXECUTION_MAX_PARALLEL.
type FileLoader struct {
	overridePath string

	mu sync.Mutex
	v  *viper.Viper
}

// NewFileLoader builds a new loader. An empty path means the default location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file is created from the
// embedded defaults first.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := writeDefault(path, DefaultConfig()); err != nil {
			return domain.Config{}, fmt.Errorf("write default config: %w", err)
		}
	}

	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return domain.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := decode(v)
	if err != nil {
		return domain.Config{}, err
	}
	l.v = v
	return cfg, nil
}

// Watch reloads the config whenever the file changes and hands the result to
// onChange. Load must have succeeded first.
func (l *FileLoader) Watch(onChange func(domain.Config, error)) error {
	l.mu.Lock()
	v := l.v
	l.mu.Unlock()
	if v == nil {
		return errors.New("config not loaded")
	}

	var debounce sync.Mutex
	var last time.Time
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		// Editors often emit several writes per save.
		debounce.Lock()
		if time.Since(last) < 100*time.Millisecond {
			debounce.Unlock()
			return
		}
		last = time.Now()
		debounce.Unlock()

		l.mu.Lock()
		cfg, err := decode(v)
		l.mu.Unlock()
		onChange(cfg, err)
	})
	v.WatchConfig()
	return nil
}

// Path returns the resolved config file path.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

// Save writes the given config back to disk.
func (l *FileLoader) Save(cfg domain.Config) error {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	return writeDefault(path, cfg)
}

// Reset overwrites the config with defaults and returns the default snapshot.
func (l *FileLoader) Reset() (domain.Config, error) {
	cfg := DefaultConfig()
	if err := l.Save(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Backup copies the current config file to a timestamped backup.
func (l *FileLoader) Backup() (string, error) {
	path := l.resolvePath()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102T150405"))
	if err := os.WriteFile(backup, data, domain.SecureFilePermissions); err != nil {
		return "", err
	}
	return backup, nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ConfigDir is ~/.kubeask.
func ConfigDir() string {
	return filepath.Join(filesystem.UserHomeDir(), configDirName)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return v
}

// setDefaults registers every scalar key so AutomaticEnv can override it.
// Models are a list and only come from the file.
func setDefaults(v *viper.Viper, d domain.Config) {
	v.SetDefault("config_format_version", d.ConfigFormatVersion)
	v.SetDefault("preferences.default_model", d.Preferences.DefaultModel)
	v.SetDefault("preferences.timeout", d.Preferences.TimeoutSeconds)
	v.SetDefault("ai.classification_timeout", d.AI.ClassificationTimeoutSeconds)
	v.SetDefault("ai.disable_classification_fallback", d.AI.DisableClassificationFallback)
	v.SetDefault("ai.cache_ttl", d.AI.CacheTTLSeconds)
	v.SetDefault("execution.command_timeout", d.Execution.CommandTimeoutSeconds)
	v.SetDefault("execution.max_parallel", d.Execution.MaxParallel)
	v.SetDefault("execution.max_follow_ups", d.Execution.MaxFollowUps)
	v.SetDefault("execution.kubectl_path", d.Execution.KubectlPath)
	v.SetDefault("kubernetes.kubeconfig", d.Kubernetes.Kubeconfig)
	v.SetDefault("kubernetes.context", d.Kubernetes.Context)
	v.SetDefault("security.rules_file", d.Security.RulesFile)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.retention_days", d.History.RetentionDays)
	v.SetDefault("history.window_size", d.History.WindowSize)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
}

func decode(v *viper.Viper) (domain.Config, error) {
	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return hydrateDefaults(cfg), nil
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// DefaultConfig exposes the bootstrap configuration template.
func DefaultConfig() domain.Config {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		// Embedded YAML is compiled in; keep a usable minimum anyway.
		return hydrateDefaults(domain.Config{
			ConfigFormatVersion: "1",
			Models: []domain.ModelDefinition{
				{Name: "offline", ModelID: "heuristic"},
			},
		})
	}
	return hydrateDefaults(cfg)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Preferences.DefaultModel == "" && len(cfg.Models) > 0 {
		cfg.Preferences.DefaultModel = cfg.Models[0].Name
	}
	if cfg.Preferences.TimeoutSeconds <= 0 {
		cfg.Preferences.TimeoutSeconds = int(domain.DefaultRequestTimeout.Seconds())
	}
	if cfg.History.RetentionDays < 0 {
		cfg.History.RetentionDays = 0
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(ConfigDir(), "history.db")
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Security.RulesFile = filesystem.ExpandPath(cfg.Security.RulesFile)
	cfg.History.Path = filesystem.ExpandPath(cfg.History.Path)
	cfg.Logging.File = filesystem.ExpandPath(cfg.Logging.File)
	cfg.Kubernetes.Kubeconfig = filesystem.ExpandPath(cfg.Kubernetes.Kubeconfig)
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
