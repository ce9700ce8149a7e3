// Package config provides repository and user configuration for stax.
// Repository settings live as JSON under .git; user settings live as TOML
// under the XDG config directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// RepoConfig holds per-repository settings
type RepoConfig struct {
	// DefaultBranch names the branch used when HEAD is detached.
	DefaultBranch *string `json:"defaultBranch,omitempty"`
	// CheckoutOnCommit controls whether the worktree is reset to the new
	// head after a committed transaction. Defaults to true.
	CheckoutOnCommit *bool `json:"checkoutOnCommit,omitempty"`
}

const repoConfigName = ".stax_config"

// GetRepoConfig reads the repository configuration, returning defaults
// when no config file exists.
func GetRepoConfig(gitDir string) (*RepoConfig, error) {
	data, err := os.ReadFile(filepath.Join(gitDir, repoConfigName))
	if err != nil {
		return &RepoConfig{}, nil
	}

	var cfg RepoConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse repo config: %w", err)
	}
	return &cfg, nil
}

// WriteRepoConfig persists the repository configuration
func WriteRepoConfig(gitDir string, cfg *RepoConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal repo config: %w", err)
	}
	return os.WriteFile(filepath.Join(gitDir, repoConfigName), append(data, '\n'), 0o644)
}

// ShouldCheckout reports whether the worktree follows committed heads
func (c *RepoConfig) ShouldCheckout() bool {
	return c.CheckoutOnCommit == nil || *c.CheckoutOnCommit
}

// UserConfig holds cross-repository user settings
type UserConfig struct {
	Author struct {
		Name  string `toml:"name"`
		Email string `toml:"email"`
	} `toml:"author"`
	Log struct {
		Enabled    bool `toml:"enabled"`
		MaxSizeMB  int  `toml:"max_size_mb"`
		MaxBackups int  `toml:"max_backups"`
		MaxAgeDays int  `toml:"max_age_days"`
	} `toml:"log"`
}

// GetUserConfig reads ~/.config/stax/config.toml, returning defaults when
// the file is absent.
func GetUserConfig() (*UserConfig, error) {
	var cfg UserConfig

	dir, err := os.UserConfigDir()
	if err != nil {
		return &cfg, nil
	}
	path := filepath.Join(dir, "stax", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return &cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config: %w", err)
	}
	return &cfg, nil
}
