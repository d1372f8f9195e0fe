// Package config reads the dnsops.yaml runtime configuration: which store
// backend to use, where the at-rest encryption key comes from, and logging
// flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/systmms/dnsops/internal/logging"
)

// EncryptionKeyEnv is consulted when the config names no key source.
const EncryptionKeyEnv = "DNSOPS_ENCRYPTION_KEY"

// Store backend names accepted in dnsops.yaml.
const (
	BackendFile     = "file"
	BackendKeyring  = "keyring"
	BackendPostgres = "postgres"
)

// Config holds the runtime configuration.
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the dnsops.yaml structure.
type Definition struct {
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log,omitempty"`
}

// StoreConfig selects and parameterizes the persistence backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`

	// File backend.
	Path string `yaml:"path,omitempty"`

	// Keyring backend.
	KeyringService string `yaml:"keyringService,omitempty"`

	// Postgres backend.
	DSN string `yaml:"dsn,omitempty"`

	// At-rest encryption key for the file and postgres backends: 64 hex
	// characters, either inline, in a file, or via DNSOPS_ENCRYPTION_KEY.
	// Inline wins over the file, the file over the environment.
	EncryptionKey     string `yaml:"encryptionKey,omitempty"`
	EncryptionKeyFile string `yaml:"encryptionKeyFile,omitempty"`
}

// LogConfig mirrors the --debug/--no-color flags.
type LogConfig struct {
	Debug   bool `yaml:"debug,omitempty"`
	NoColor bool `yaml:"noColor,omitempty"`
}

// Default returns the configuration used when no dnsops.yaml exists: a file
// store next to the user's config dir.
func Default() *Definition {
	return &Definition{
		Store: StoreConfig{
			Backend:        BackendFile,
			Path:           defaultStorePath(),
			KeyringService: "dnsops",
		},
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "dnsops-store.json"
	}
	return dir + string(os.PathSeparator) + "dnsops" + string(os.PathSeparator) + "store.json"
}

// Load reads and parses the configuration file. A missing file yields the
// defaults rather than an error.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		c.Definition = Default()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", c.Path, err)
	}

	def := Default()
	if err := yaml.Unmarshal(data, def); err != nil {
		return fmt.Errorf("parse config %s: %w", c.Path, err)
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", c.Path, err)
	}
	c.Definition = def
	return nil
}

// Validate checks backend selection and its required parameters.
func (d *Definition) Validate() error {
	switch d.Store.Backend {
	case BackendFile:
		if d.Store.Path == "" {
			return fmt.Errorf("store.path is required for the file backend")
		}
	case BackendKeyring:
		if d.Store.KeyringService == "" {
			return fmt.Errorf("store.keyringService is required for the keyring backend")
		}
	case BackendPostgres:
		if d.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q (expected %s, %s or %s)",
			d.Store.Backend, BackendFile, BackendKeyring, BackendPostgres)
	}
	return nil
}

// ResolveEncryptionKey returns the hex key for at-rest encryption. Precedence:
// inline config value, key file, environment variable.
func (d *Definition) ResolveEncryptionKey() (string, error) {
	if d.Store.EncryptionKey != "" {
		return d.Store.EncryptionKey, nil
	}
	if d.Store.EncryptionKeyFile != "" {
		raw, err := os.ReadFile(d.Store.EncryptionKeyFile)
		if err != nil {
			return "", fmt.Errorf("read encryption key file: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	if key := os.Getenv(EncryptionKeyEnv); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no encryption key configured: set store.encryptionKey, store.encryptionKeyFile or %s", EncryptionKeyEnv)
}
