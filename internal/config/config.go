package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no config file exists at the searched location.
var ErrNotFound = errors.New("no config file")

// FileConfig is the on-disk YAML configuration shape for securelog. Every
// field is optional; nil means "not set here".
type FileConfig struct {
	// Pattern set
	Catalog        *string `yaml:"catalog,omitempty"`
	CustomPatterns *string `yaml:"custom_patterns,omitempty"`

	// Walk policy
	ExcludeTypes  []string `yaml:"exclude_types,omitempty"`
	MaxDepth      *int     `yaml:"max_depth,omitempty"`
	Mask          *bool    `yaml:"mask,omitempty"`
	VisiblePrefix *int     `yaml:"visible_prefix,omitempty"`
	MatchTimeout  *string  `yaml:"match_timeout,omitempty"`
	Selector      *string  `yaml:"selector,omitempty"`

	// File discovery and output
	Include  *string `yaml:"include,omitempty"`
	Exclude  *string `yaml:"exclude,omitempty"`
	Threads  *int    `yaml:"threads,omitempty"`
	NoColor  *bool   `yaml:"no_color,omitempty"`
	AuditLog *string `yaml:"audit_log,omitempty"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LocalNames are the file names LoadLocal looks for, in order.
var LocalNames = []string{".securelog.yml", ".securelog.yaml", "securelog.yml", "securelog.yaml"}

// LoadLocal searches for a project-local config file in the given root.
func LoadLocal(root string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, fmt.Errorf("local: %w", ErrNotFound)
}

// GlobalPath returns the location of the global config file.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return "", errors.New("no config dir")
	}
	return filepath.Join(base, "securelog", "config.yml"), nil
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p, err := GlobalPath()
	if err != nil {
		return cfg, err
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, fmt.Errorf("global: %w", ErrNotFound)
}

// Merge overlays local on top of global: a field set in local wins.
func Merge(global, local FileConfig) FileConfig {
	out := global
	if local.Catalog != nil {
		out.Catalog = local.Catalog
	}
	if local.CustomPatterns != nil {
		out.CustomPatterns = local.CustomPatterns
	}
	if local.ExcludeTypes != nil {
		out.ExcludeTypes = local.ExcludeTypes
	}
	if local.MaxDepth != nil {
		out.MaxDepth = local.MaxDepth
	}
	if local.Mask != nil {
		out.Mask = local.Mask
	}
	if local.VisiblePrefix != nil {
		out.VisiblePrefix = local.VisiblePrefix
	}
	if local.MatchTimeout != nil {
		out.MatchTimeout = local.MatchTimeout
	}
	if local.Selector != nil {
		out.Selector = local.Selector
	}
	if local.Include != nil {
		out.Include = local.Include
	}
	if local.Exclude != nil {
		out.Exclude = local.Exclude
	}
	if local.Threads != nil {
		out.Threads = local.Threads
	}
	if local.NoColor != nil {
		out.NoColor = local.NoColor
	}
	if local.AuditLog != nil {
		out.AuditLog = local.AuditLog
	}
	return out
}

// Timeout parses MatchTimeout. It returns zero when unset.
func (fc FileConfig) Timeout() (time.Duration, error) {
	if fc.MatchTimeout == nil || *fc.MatchTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(*fc.MatchTimeout)
	if err != nil {
		return 0, fmt.Errorf("match_timeout: %w", err)
	}
	return d, nil
}
