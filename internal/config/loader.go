package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julien6387/supvisors/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/supvisors"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns the user's default configuration
// directory, panicking if the home directory cannot be determined.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// LoadOptions loads Options from config.yaml in the given directory,
// falling back to GetDefaultOptions() when the file is absent, and
// validating the merged result.
func LoadOptions(configPath string) (Options, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	opts := GetDefaultOptions()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "no config.yaml found at %s, using defaults", configFilePath)
			return opts, opts.Validate()
		}
		return Options{}, NewConfigurationError(configFilePath, configFileName, "fleet", "options", "io", err.Error())
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, NewConfigurationError(configFilePath, configFileName, "fleet", "options", "parse", err.Error())
	}
	logging.Info("ConfigLoader", "loaded configuration from %s", configFilePath)

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
