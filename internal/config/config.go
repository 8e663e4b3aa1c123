// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/grocerlens/reviewharvest/internal/browser"
)

// LoadFromFile loads configuration from a YAML file and merges it over the
// built-in defaults
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := expandEnvironmentVariables(string(data))

	var fileCfg Config
	if err := yaml.Unmarshal([]byte(expanded), &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	cfg := merge(Default(), &fileCfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromReader loads configuration from an io.Reader
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}

	return LoadFromBytes(data)
}

// merge lays file-provided values over the defaults. Retailer entries
// replace built-ins with the same name; new names extend the registry.
func merge(base, override *Config) *Config {
	out := *base

	if override.Version != "" {
		out.Version = override.Version
	}
	if override.Politeness.RequestsPerSecond > 0 {
		out.Politeness.RequestsPerSecond = override.Politeness.RequestsPerSecond
	}
	if override.Politeness.Burst > 0 {
		out.Politeness.Burst = override.Politeness.Burst
	}
	if override.Politeness.ProductDelay > 0 {
		out.Politeness.ProductDelay = override.Politeness.ProductDelay
	}
	if override.Browser != nil {
		out.Browser = override.Browser
	}
	if override.Output.Directory != "" {
		out.Output.Directory = override.Output.Directory
	}
	if override.Output.Format != "" {
		out.Output.Format = override.Output.Format
	}
	if override.Output.FilenamePrefix != "" {
		out.Output.FilenamePrefix = override.Output.FilenamePrefix
	}

	if len(override.Retailers) > 0 {
		byName := make(map[string]int, len(out.Retailers))
		retailers := make([]RetailerConfig, len(out.Retailers))
		copy(retailers, out.Retailers)
		for i, r := range retailers {
			byName[r.Name] = i
		}
		for _, r := range override.Retailers {
			if i, ok := byName[r.Name]; ok {
				retailers[i] = r
			} else {
				byName[r.Name] = len(retailers)
				retailers = append(retailers, r)
			}
		}
		out.Retailers = retailers
	}

	if out.Browser == nil {
		out.Browser = browser.DefaultConfig()
	}
	return &out
}

var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::-([^}]*))?\}`)

// expandEnvironmentVariables substitutes ${VAR} and ${VAR:-default}
// references so credentials and paths stay out of config files
func expandEnvironmentVariables(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarRe.FindStringSubmatch(match)
		if v, ok := os.LookupEnv(groups[1]); ok {
			return v
		}
		return groups[2]
	})
}
