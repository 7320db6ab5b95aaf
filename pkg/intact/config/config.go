// Package config loads intact's configuration from file, environment,
// and flag bindings via viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Defaults applied when neither config file, environment, nor flags set
// a value.
const (
	// DefaultOutput is the default report formatter.
	DefaultOutput = "pretty"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "warn"

	// DefaultWorkers means auto-detect from CPU count.
	DefaultWorkers = 0
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	Path         string `mapstructure:"path"`
	ConsoleLevel string `mapstructure:"console_level"`
}

// Config represents the application configuration.
type Config struct {
	// Workers bounds hash concurrency; 0 auto-detects.
	Workers int `mapstructure:"workers"`

	// Output selects the report formatter (pretty, plain, json).
	Output string `mapstructure:"output"`

	// Logging configures the log subsystem.
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/intact/config.yaml
//   - $HOME/.config/intact/config.yaml
//
// Environment variables are prefixed with INTACT_ (e.g., INTACT_WORKERS).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "intact"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "intact"))

	v.SetEnvPrefix("INTACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults registers the default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "") // empty means use the default log path
	v.SetDefault("logging.console_level", "")
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "intact"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "intact"), nil
}

// defaultConfigYAML is the file written by WriteDefault.
const defaultConfigYAML = `# intact configuration
#
# Every value can also be set with an INTACT_ environment variable,
# e.g. INTACT_OUTPUT=json or INTACT_LOGGING_LEVEL=debug.

# Hash worker count; 0 auto-detects from the CPU count.
workers: 0

# Report format: pretty, plain, or json.
output: pretty

logging:
  # Log file level: debug, info, warn, or error.
  level: warn
  # Log file path; empty means $XDG_STATE_HOME/intact/intact.log.
  path: ""
`

// WriteDefault creates the config directory and writes a commented
// default config file. An existing config file is left untouched.
func WriteDefault() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// StateDir returns $XDG_STATE_HOME/intact/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "intact")
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}
