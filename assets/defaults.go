package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultVerifierRulesYAML contains the embedded default verifier rules.
//
//go:embed defaults/verifier.yaml
var DefaultVerifierRulesYAML []byte
