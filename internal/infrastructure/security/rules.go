package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/kubeask/assets"
	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/pkg/filesystem"
)

// DangerRule describes an operator supplied regex rule. Rules only ever add
// rejections; they cannot relax the built-in policy.
type DangerRule struct {
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
}

// RulesFile is the YAML schema root.
type RulesFile struct {
	Rules struct {
		DangerPatterns []DangerRule `yaml:"danger_patterns"`
	} `yaml:"rules"`
}

func loadRules(path string) ([]dangerPattern, error) {
	if path == "" {
		return nil, nil
	}
	path = filesystem.ExpandPath(path)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read verifier rules: %w", err)
	}

	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse verifier rules %s: %w", path, err)
	}

	compiled := make([]dangerPattern, 0, len(rules.Rules.DangerPatterns))
	for _, rule := range rules.Rules.DangerPatterns {
		if strings.TrimSpace(rule.Pattern) == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)` + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile verifier rule %q: %w", rule.Pattern, err)
		}
		compiled = append(compiled, dangerPattern{
			expr:    rule.Pattern,
			message: rule.Message,
			re:      re,
		})
	}
	return compiled, nil
}

// WriteDefaultRules installs the commented example rules file at path unless
// one already exists. It reports whether a file was written.
func WriteDefaultRules(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	path = filesystem.ExpandPath(path)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, assets.DefaultVerifierRulesYAML, domain.SecureFilePermissions); err != nil {
		return false, fmt.Errorf("write verifier rules: %w", err)
	}
	return true, nil
}
