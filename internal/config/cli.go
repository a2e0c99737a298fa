package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// CLIConfigFileName is looked up in the working directory, then the home directory.
const CLIConfigFileName = "deskctl.yaml"

// CLIConfig configures the deskctl client.
type CLIConfig struct {
	Server       string        `yaml:"server" validate:"required,url"`
	SessionFile  string        `yaml:"sessionFile" validate:"required"`
	PollInterval time.Duration `yaml:"pollInterval" validate:"gte=0"`
	LogFormat    string        `yaml:"logFormat,omitempty" validate:"omitempty,oneof=console json"`
}

// DefaultCLIConfig is used when no config file exists.
func DefaultCLIConfig() CLIConfig {
	session := ".transportdesk/session.yaml"
	if home, err := os.UserHomeDir(); err == nil {
		session = filepath.Join(home, ".transportdesk", "session.yaml")
	}
	return CLIConfig{
		Server:       "http://localhost:8080",
		SessionFile:  session,
		PollInterval: 10 * time.Second,
	}
}

// LoadCLIConfig reads path, or the default locations when path is empty. Missing files
// fall back to DefaultCLIConfig; fields absent from the file keep their defaults.
func LoadCLIConfig(path string) (CLIConfig, error) {
	cfg := DefaultCLIConfig()

	if path == "" {
		found, err := findCLIConfigFile()
		if err != nil {
			return cfg, err
		}
		if found == "" {
			return cfg, ValidateCLIConfig(cfg)
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, ValidateCLIConfig(cfg)
}

func ValidateCLIConfig(cfg CLIConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func findCLIConfigFile() (string, error) {
	if _, err := os.Stat(CLIConfigFileName); err == nil {
		return CLIConfigFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}
	homeConfigPath := filepath.Join(homeDir, CLIConfigFileName)
	_, err = os.Stat(homeConfigPath)
	switch {
	case err == nil:
		return homeConfigPath, nil
	case errors.Is(err, os.ErrNotExist):
		return "", nil
	default:
		return "", fmt.Errorf("failed to stat %s: %w", homeConfigPath, err)
	}
}
