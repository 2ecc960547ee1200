// Package config loads the platform OAuth configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/providers"
	"gopkg.in/yaml.v3"
)

// ErrNoPlatforms is returned when the configuration file enables no platform.
var ErrNoPlatforms = errors.New("no platforms configured")

// PlatformConfigFile represents the structure of the platforms.yaml file.
type PlatformConfigFile struct {
	Platforms map[string]PlatformEntry `yaml:"platforms"`
}

// PlatformEntry is one platform section. Disabled entries are skipped.
type PlatformEntry struct {
	Disabled         bool `yaml:"disabled"`
	providers.Config `yaml:",inline"`
}

// LoadPlatformConfig reads the YAML file at path, expands ${VAR} references from the
// environment and returns the validated provider configuration per platform.
func LoadPlatformConfig(path string) (map[models.Platform]providers.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return ParsePlatformConfig(data)
}

// ParsePlatformConfig parses and validates raw YAML platform configuration.
func ParsePlatformConfig(data []byte) (map[models.Platform]providers.Config, error) {
	var file PlatformConfigFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	configs := make(map[models.Platform]providers.Config, len(file.Platforms))

	for name, entry := range file.Platforms {
		if entry.Disabled {
			continue
		}

		platform, err := models.ParsePlatform(name)
		if err != nil {
			return nil, err
		}

		if _, duplicate := configs[platform]; duplicate {
			return nil, fmt.Errorf("platform %s configured more than once", platform)
		}

		if err := validate.Struct(entry.Config); err != nil {
			return nil, fmt.Errorf("invalid configuration for platform %s: %w", platform, err)
		}

		configs[platform] = entry.Config
	}

	if len(configs) == 0 {
		return nil, ErrNoPlatforms
	}

	return configs, nil
}
