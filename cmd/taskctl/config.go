package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const defaultServer = "http://localhost:3000"

// Config is the taskctl configuration file.
type Config struct {
	// Server is the base URL of the task manager, without /api.
	Server string `toml:"server"`
	// TokenFile is where the session token is kept.
	TokenFile string `toml:"token-file"`
}

// defaultConfigDir returns ~/.config/taskctl, or the user config dir of the platform.
func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".taskctl"
	}
	return filepath.Join(dir, "taskctl")
}

// LoadConfig reads the config at path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Server:    defaultServer,
		TokenFile: filepath.Join(filepath.Dir(path), "session.toml"),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the server URL and token path.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server must be an http(s) URL, got %q", c.Server)
	}
	if c.TokenFile == "" {
		return errors.New("token-file must not be empty")
	}
	return nil
}
