package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultRules contains the embedded default global rules, one per line.
//
//go:embed defaults/rules.txt
var DefaultRules []byte
