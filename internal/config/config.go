package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	kerrors "github.com/systmms/keyring/internal/errors"
	"github.com/systmms/keyring/internal/logging"
)

// DefaultPath is the configuration file read when --config is not given.
const DefaultPath = "keyring.yaml"

//go:embed schema.json
var schema string

// Config holds the runtime configuration
type Config struct {
	Path string
	// Explicit is set when Path came from the command line; a missing file
	// is then an error instead of an empty configuration.
	Explicit   bool
	Logger     *logging.Logger
	Definition *Definition

	// Store and MetricsFile are command-line overrides of the file values.
	Store       string
	MetricsFile string
}

// StoreName returns the store to use; empty means the platform default.
func (c *Config) StoreName() string {
	if c.Store != "" {
		return c.Store
	}
	if c.Definition != nil {
		return c.Definition.Store
	}
	return ""
}

// MetricsPath returns the file metrics are written to, if any.
func (c *Config) MetricsPath() string {
	if c.MetricsFile != "" {
		return c.MetricsFile
	}
	if c.Definition != nil && c.Definition.Metrics != nil {
		return c.Definition.Metrics.File
	}
	return ""
}

// Definition represents the keyring.yaml structure
type Definition struct {
	Version  int             `yaml:"version,omitempty"`
	Store    string          `yaml:"store,omitempty"`
	Service  string          `yaml:"service,omitempty"`
	Target   string          `yaml:"target,omitempty"`
	Metrics  *MetricsConfig  `yaml:"metrics,omitempty"`
	Keyutils *KeyutilsConfig `yaml:"keyutils,omitempty"`
	AWS      *AWSConfig      `yaml:"aws,omitempty"`
	SQL      *SQLConfig      `yaml:"sql,omitempty"`
}

// MetricsConfig controls the Prometheus text file written after each command
type MetricsConfig struct {
	File string `yaml:"file"`
}

// KeyutilsConfig holds kernel keyring settings
type KeyutilsConfig struct {
	Keyring string `yaml:"keyring,omitempty"`
}

// AWSConfig holds AWS Secrets Manager settings
type AWSConfig struct {
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	KMSKeyID  string `yaml:"kms_key_id,omitempty"`
	TimeoutMs int    `yaml:"timeout_ms,omitempty"`
}

// SQLConfig holds SQL store settings. Passwords and DSNs are read from the
// environment variables named here, never from the file itself.
type SQLConfig struct {
	Type        string `yaml:"type"`
	Host        string `yaml:"host,omitempty"`
	Port        string `yaml:"port,omitempty"`
	Database    string `yaml:"database,omitempty"`
	Username    string `yaml:"username,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	DSNEnv      string `yaml:"dsn_env,omitempty"`
	SSLMode     string `yaml:"sslmode,omitempty"`
	Table       string `yaml:"table,omitempty"`
	CreateTable bool   `yaml:"create_table,omitempty"`
	TimeoutMs   int    `yaml:"timeout_ms,omitempty"`
}

// Load reads, validates and parses the configuration file
func (c *Config) Load() error {
	if c.Definition != nil {
		return nil
	}
	path := c.Path
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !c.Explicit {
			c.Definition = &Definition{Version: 1}
			return nil
		}
		if os.IsNotExist(err) {
			return kerrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Check the --config path, or omit --config to run without a file",
			}
		}
		return kerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}
	c.Definition = def
	return nil
}

// Parse validates data against the configuration schema and decodes it
func Parse(data []byte) (*Definition, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, kerrors.ConfigError{
			Message:    fmt.Sprintf("invalid YAML syntax in configuration file: %v", err),
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}
	if raw == nil {
		return &Definition{Version: 1}, nil
	}

	if err := validate(raw); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, kerrors.ConfigError{
			Message:    fmt.Sprintf("cannot decode configuration: %v", err),
			Suggestion: "Compare the file with the documented keyring.yaml layout",
		}
	}
	if def.Version == 0 {
		def.Version = 1
	}
	return &def, nil
}

func validate(raw interface{}) error {
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return kerrors.ConfigError{
			Message:    fmt.Sprintf("configuration cannot be represented as JSON: %v", err),
			Suggestion: "Use only string keys in keyring.yaml",
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		errs := result.Errors()
		var messages []string
		for _, desc := range errs {
			messages = append(messages, desc.String())
		}
		return kerrors.ConfigError{
			Field:      errs[0].Field(),
			Message:    "schema validation failed:\n  - " + strings.Join(messages, "\n  - "),
			Suggestion: "Compare the file with the documented keyring.yaml layout",
		}
	}
	return nil
}

// Timeout converts a timeout_ms setting, falling back to def when unset
func Timeout(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
