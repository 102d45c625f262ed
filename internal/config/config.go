package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	DSN            string `yaml:"dsn,omitempty"`
	Driver         string `yaml:"driver,omitempty"`
	Host           string `yaml:"host,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	Username       string `yaml:"username,omitempty"`
	Database       string `yaml:"database,omitempty"`
	SSLMode        string `yaml:"sslmode,omitempty"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

type OutputConfig struct {
	Dir        string `yaml:"dir,omitempty"`
	NullMarker string `yaml:"null_marker,omitempty"`
}

// ProjectConfig is the content of mokkadump.yaml. Passwords are deliberately
// absent; they come from MOKKA_PASSWORD, the DSN or the interactive prompt.
type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Output     OutputConfig     `yaml:"output"`
	Timeout    string           `yaml:"timeout,omitempty"`
}

const ConfigFileName = "mokkadump.yaml"

// Load reads mokkadump.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	cfg, err := LoadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a config file at an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrConfigNotFound)
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}
