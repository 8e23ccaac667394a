// Package system provides infrastructure for system-level configuration
// loaded from ~/.credbind/config.yaml.
package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/reglet-dev/credbind/internal/infrastructure/redaction"
)

// Config represents the global configuration file (~/.credbind/config.yaml).
type Config struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	Usage       UsageConfig       `yaml:"usage"`
	Masking     MaskingConfig     `yaml:"masking"`
	Redaction   RedactionConfig   `yaml:"redaction"`
}

// CredentialsConfig locates the credential definitions.
type CredentialsConfig struct {
	// File is the YAML credentials file. Relative paths resolve against the config file.
	File string `yaml:"file"`
}

// UsageBackend selects where usage records are persisted.
type UsageBackend string

const (
	// UsageBackendMemory keeps records for the lifetime of the process (default)
	UsageBackendMemory UsageBackend = "memory"

	// UsageBackendSQLite persists records in a local SQLite file
	UsageBackendSQLite UsageBackend = "sqlite"

	// UsageBackendRedis persists records in a shared Redis server
	UsageBackendRedis UsageBackend = "redis"
)

// UsageConfig configures usage record persistence.
type UsageConfig struct {
	Backend    UsageBackend `yaml:"backend"`
	SQLitePath string       `yaml:"sqlite_path"`
	Redis      RedisConfig  `yaml:"redis"`
}

// RedisConfig configures the Redis usage backend.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	KeyPrefix string `yaml:"key_prefix"`
	DB        int    `yaml:"db"`
}

// MaskingConfig configures output masking.
type MaskingConfig struct {
	// Placeholder replaces masked values in scope output
	Placeholder string `yaml:"placeholder"`
}

// RedactionConfig configures pattern-based log sanitization.
type RedactionConfig struct {
	HashMode        HashModeConfig `yaml:"hash_mode"`
	Patterns        []string       `yaml:"patterns"`
	Paths           []string       `yaml:"paths"`
	DisableGitleaks bool           `yaml:"disable_gitleaks"`
}

// HashModeConfig controls hash-based redaction.
type HashModeConfig struct {
	Salt    string `yaml:"salt"`
	Enabled bool   `yaml:"enabled"`
}

// RedactorConfig converts the redaction settings for redaction.New.
func (c RedactionConfig) RedactorConfig(placeholder string) redaction.Config {
	return redaction.Config{
		Placeholder:     placeholder,
		Salt:            c.HashMode.Salt,
		Patterns:        c.Patterns,
		Paths:           c.Paths,
		HashMode:        c.HashMode.Enabled,
		DisableGitleaks: c.DisableGitleaks,
	}
}

// ConfigLoader loads system configuration from disk.
type ConfigLoader struct{}

// NewConfigLoader creates a new system config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// DefaultDir returns ~/.credbind, or .credbind when the home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".credbind"
	}
	return filepath.Join(home, ".credbind")
}

// DefaultConfigPath returns ~/.credbind/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultConfig returns a Config with safe defaults for all fields.
// This is used when no system config file exists.
func DefaultConfig() *Config {
	return &Config{
		Credentials: CredentialsConfig{
			File: filepath.Join(DefaultDir(), "credentials.yaml"),
		},
		Usage: UsageConfig{
			Backend:    UsageBackendMemory,
			SQLitePath: filepath.Join(DefaultDir(), "usage.db"),
		},
		Masking: MaskingConfig{
			Placeholder: "****",
		},
		Redaction: RedactionConfig{
			Patterns: []string{},
			Paths:    []string{"password", "secret", "token"},
		},
	}
}

// Load loads the system configuration from the specified path.
// If the file does not exist, returns DefaultConfig().
// Fields absent from the file keep their defaults.
func (l *ConfigLoader) Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	//nolint:gosec // G304: path is the user-provided config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}

	base := filepath.Dir(path)
	config.Credentials.File = resolvePath(base, config.Credentials.File)
	config.Usage.SQLitePath = resolvePath(base, config.Usage.SQLitePath)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid system config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Usage.Backend {
	case UsageBackendMemory, UsageBackendSQLite:
	case UsageBackendRedis:
		if c.Usage.Redis.Addr == "" {
			return fmt.Errorf("usage.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown usage backend %q", c.Usage.Backend)
	}
	if c.Usage.Backend == UsageBackendSQLite && c.Usage.SQLitePath == "" {
		return fmt.Errorf("usage.sqlite_path is required for the sqlite backend")
	}
	if c.Masking.Placeholder == "" {
		return fmt.Errorf("masking.placeholder must not be empty")
	}
	return nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return filepath.Join(base, p)
}
