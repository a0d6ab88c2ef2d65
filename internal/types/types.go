package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SecretPattern describes one class of secret. Regex is kept as a string so a
// pattern can be handed to the match worker as plain data; it is compiled on
// the worker side and never shared with callers.
type SecretPattern struct {
	Name           string `json:"name" yaml:"name"`
	Regex          string `json:"regex" yaml:"regex"`
	SecretPosition int    `json:"secret_position" yaml:"secret_position"`
	FalsePositive  string `json:"false_positive,omitempty" yaml:"false_positive,omitempty"`
}

// UnmarshalYAML reads a pattern. Besides the catalog keys it accepts the
// camelCase names used by existing pattern files: detector, secretPosition
// and falsePositive.
func (p *SecretPattern) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		Name                string `yaml:"name"`
		Detector            string `yaml:"detector"`
		Regex               string `yaml:"regex"`
		SecretPosition      *int   `yaml:"secret_position"`
		SecretPositionCamel *int   `yaml:"secretPosition"`
		FalsePositive       string `yaml:"false_positive"`
		FalsePositiveCamel  string `yaml:"falsePositive"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	if raw.Name != "" && raw.Detector != "" && raw.Name != raw.Detector {
		return fmt.Errorf("line %d: pattern has both name %q and detector %q", n.Line, raw.Name, raw.Detector)
	}

	*p = SecretPattern{Name: raw.Name, Regex: raw.Regex, FalsePositive: raw.FalsePositive}
	if p.Name == "" {
		p.Name = raw.Detector
	}
	if p.FalsePositive == "" {
		p.FalsePositive = raw.FalsePositiveCamel
	}
	switch {
	case raw.SecretPosition != nil:
		p.SecretPosition = *raw.SecretPosition
	case raw.SecretPositionCamel != nil:
		p.SecretPosition = *raw.SecretPositionCamel
	}
	return nil
}

// OriginText is the origin label used for bare text nodes.
const OriginText = "TextNode"

// Result is a single secret found during a scan. RawValue holds the matched
// value and is overwritten with the masked form when masking is enabled, so
// consumers always read the final value.
type Result struct {
	RawValue string `json:"raw_value"`
	Line     int    `json:"line,omitempty"`
	Detector string `json:"detector"`
	Origin   string `json:"origin"`
}
