// Manages server configuration stored in config.json.

package storage

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the store layout. Everything the store touches lives under
// RootDir; uploaded binaries live under the AssetDir subtree, and the shard
// documents under the MetaDir area within it. No process-wide singletons:
// a Config is passed into each store instance at construction.
type Config struct {
	// RootDir is the directory under which all document and asset paths
	// are resolved.
	RootDir string

	// AssetDir is the name of the reserved asset subtree within RootDir.
	AssetDir string

	// MetaDir is the name of the reserved metadata area within the asset
	// subtree, holding the shard documents.
	MetaDir string
}

// DefaultConfig returns the store layout defaults for a root directory.
func DefaultConfig(rootDir string) Config {
	return Config{
		RootDir:  rootDir,
		AssetDir: "assets",
		MetaDir:  ".meta",
	}
}

// Validate checks that the config is usable.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		return errors.New("root directory is required")
	}
	if c.AssetDir == "" {
		return errors.New("asset directory name is required")
	}
	if c.MetaDir == "" {
		return errors.New("metadata directory name is required")
	}
	return nil
}

// ServerConfig stores durable server-wide settings.
// Loaded from config.json in the data directory, created with defaults if missing.
type ServerConfig struct {
	// JWTSecret signs session tokens. Auto-generated if empty on first load.
	JWTSecret []byte `json:"jwt_secret"`

	// EditPasswordHash is the bcrypt hash of the edit password. Empty means
	// the API runs unauthenticated (local single-user mode).
	EditPasswordHash string `json:"edit_password_hash"`

	// WriteRatePerMin limits mutating requests per client per minute.
	// 0 means unlimited.
	WriteRatePerMin int `json:"write_rate_per_min"`
}

// LoadServerConfig loads the server config, creating it with defaults when
// the file does not exist.
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		cfg := &ServerConfig{WriteRatePerMin: 120}
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg := &ServerConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if len(cfg.JWTSecret) == 0 {
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Save writes the config back, generating the JWT secret on first save.
func (c *ServerConfig) Save(path string) error {
	if len(c.JWTSecret) == 0 {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		c.JWTSecret = secret
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
