package settings

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadFromFile reads a YAML settings file. Keys absent from the file keep
// their default values.
func LoadFromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML bytes, substituting ${VAR} references from the
// environment, and validates the result.
func LoadFromBytes(data []byte) (Settings, error) {
	content := envVarRegex.ReplaceAllStringFunc(string(data), func(match string) string {
		if value := os.Getenv(match[2 : len(match)-1]); value != "" {
			return value
		}
		return match
	})

	s := Default()
	if err := yaml.Unmarshal([]byte(content), &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// SaveToFile writes settings to a YAML file.
func SaveToFile(s Settings, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}
