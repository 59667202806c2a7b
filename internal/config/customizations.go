package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HardwareCustomization renames the services of one hardware type:
// the service name becomes Prefix + component name + Suffix.
type HardwareCustomization struct {
	APIType string `json:"api_type" yaml:"api_type"`
	Prefix  string `json:"prefix" yaml:"prefix"`
	Suffix  string `json:"suffix" yaml:"suffix"`
}

// CustomizationFile is the parsed YAML structure:
// hardware: [{api_type, prefix, suffix}]
type CustomizationFile struct {
	Hardware []HardwareCustomization `yaml:"hardware"`
}

// LoadCustomizationFile parses a YAML customization file from the given path.
// Returns nil if path is empty (no customization file).
func LoadCustomizationFile(path string) ([]HardwareCustomization, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configErr(envHardwareCustomizations, fmt.Errorf("read customization file: %w", err))
	}

	var cf CustomizationFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, configErr(envHardwareCustomizations, fmt.Errorf("parse customization file: %w", err))
	}

	if err := validateCustomizations(cf.Hardware); err != nil {
		return nil, configErr(envHardwareCustomizations, err)
	}

	return cf.Hardware, nil
}

func validateCustomizations(items []HardwareCustomization) error {
	seen := make(map[string]bool)

	for i, c := range items {
		if c.APIType == "" {
			return fmt.Errorf("hardware %d: api_type is required", i)
		}
		if seen[c.APIType] {
			return fmt.Errorf("hardware %q: duplicate api_type", c.APIType)
		}
		seen[c.APIType] = true
	}

	return nil
}

// MergeCustomizations combines file entries with agent entries. Agent
// entries win per api_type. The result keeps file order, with agent-only
// entries appended.
func MergeCustomizations(file, agent []HardwareCustomization) []HardwareCustomization {
	if len(file) == 0 {
		return agent
	}
	override := make(map[string]HardwareCustomization, len(agent))
	for _, c := range agent {
		override[c.APIType] = c
	}

	merged := make([]HardwareCustomization, 0, len(file)+len(agent))
	used := make(map[string]bool, len(agent))
	for _, c := range file {
		if o, ok := override[c.APIType]; ok {
			merged = append(merged, o)
			used[c.APIType] = true
			continue
		}
		merged = append(merged, c)
	}
	for _, c := range agent {
		if !used[c.APIType] {
			merged = append(merged, c)
		}
	}
	return merged
}

// CustomizationIndex maps api_type to its customization.
func CustomizationIndex(items []HardwareCustomization) map[string]HardwareCustomization {
	index := make(map[string]HardwareCustomization, len(items))
	for _, c := range items {
		index[c.APIType] = c
	}
	return index
}
