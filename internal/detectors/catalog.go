package detectors

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/onboardbase/securelog/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var bundled []byte

// Catalog is the on-disk shape of a pattern collection.
type Catalog struct {
	Version  string                `yaml:"version"`
	Patterns []types.SecretPattern `yaml:"patterns"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog Catalog
)

func loadDefault() {
	c, err := Parse(bundled)
	if err != nil {
		panic(fmt.Sprintf("detectors: bundled catalog is invalid: %v", err))
	}
	defaultCatalog = c
}

// Default returns a copy of the bundled pattern list.
func Default() []types.SecretPattern {
	defaultOnce.Do(loadDefault)
	return clonePatterns(defaultCatalog.Patterns)
}

// Version reports the version of the bundled catalog.
func Version() string {
	defaultOnce.Do(loadDefault)
	return defaultCatalog.Version
}

// Parse decodes a catalog document. Rules are not compiled here.
func Parse(b []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse catalog: %w", err)
	}
	return c, nil
}

// Load reads a catalog file from path.
func Load(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	return Parse(b)
}

// LoadPatterns reads a custom pattern file. Both a full catalog document and a
// bare YAML list of patterns are accepted.
func LoadPatterns(path string) ([]types.SecretPattern, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []types.SecretPattern
	if err := yaml.Unmarshal(b, &list); err != nil {
		c, cerr := Parse(b)
		if cerr != nil {
			return nil, cerr
		}
		list = c.Patterns
	}
	if err := Require(list); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// Require rejects patterns a scan cannot attribute: every pattern needs a
// name and a regex. Lint reports the remaining defects.
func Require(patterns []types.SecretPattern) error {
	for i, p := range patterns {
		switch {
		case p.Name == "":
			return fmt.Errorf("pattern #%d: missing name", i)
		case p.Regex == "":
			return fmt.Errorf("pattern %s: missing regex", p.Name)
		}
	}
	return nil
}

// Effective concatenates defaults and custom patterns, preserving order and
// keeping duplicates.
func Effective(defaults, custom []types.SecretPattern) []types.SecretPattern {
	out := make([]types.SecretPattern, 0, len(defaults)+len(custom))
	out = append(out, defaults...)
	return append(out, custom...)
}

// Names returns pattern names in catalog order.
func Names(patterns []types.SecretPattern) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = p.Name
	}
	return out
}

func clonePatterns(in []types.SecretPattern) []types.SecretPattern {
	out := make([]types.SecretPattern, len(in))
	copy(out, in)
	return out
}
