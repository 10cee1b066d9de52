package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Storage Storage `yaml:"storage"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
	Auth    Auth    `yaml:"auth"`
	Logging Logging `yaml:"logging"`
}

type Storage struct {
	Root string `yaml:"root"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
}

type Auth struct {
	JWTSecretEnv  string `yaml:"jwt_secret_env"`
	TokenDuration string `yaml:"token_duration"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for sawaliram.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "sawaliram")
}

// DataDir returns the XDG data directory for sawaliram.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "sawaliram")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/sawaliram/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'sawaliram init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Server: Server{Addr: "127.0.0.1", Port: 8000},
		Auth: Auth{
			JWTSecretEnv:  "SAWALIRAM_JWT_SECRET",
			TokenDuration: "24h",
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.TokenDuration(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// GetStorageRoot returns the directory spreadsheet artifacts are kept under.
// It defaults to the submissions directory inside the data directory.
func (c *Config) GetStorageRoot() string {
	if c.Storage.Root != "" {
		return c.Storage.Root
	}
	return filepath.Join(c.GetDataDir(), "submissions")
}

// DatabasePath returns the SQLite database file path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.GetDataDir(), "sawaliram.db")
}

// TokenDuration parses auth.token_duration.
func (c *Config) TokenDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Auth.TokenDuration)
	if err != nil {
		return 0, fmt.Errorf("parsing auth.token_duration: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("auth.token_duration must be positive, got %s", d)
	}
	return d, nil
}

// JWTSecret reads the token signing secret from the configured environment
// variable.
func (c *Config) JWTSecret() (string, error) {
	secret := os.Getenv(c.Auth.JWTSecretEnv)
	if secret == "" {
		return "", fmt.Errorf("%s is not set", c.Auth.JWTSecretEnv)
	}
	return secret, nil
}

// ListenAddr returns the host:port the API server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Addr, c.Server.Port)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
