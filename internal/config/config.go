package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds connection details for the RAG backend.
type ServerConfig struct {
	// URL is the backend base address, e.g. http://localhost:8001.
	URL string `yaml:"url"`
	// TimeoutSecs bounds each backend call; 0 keeps the HTTP client's
	// default of no deadline.
	TimeoutSecs int `yaml:"timeout_secs"`
	// DebugPointsLimit caps how many raw points the store query asks for.
	DebugPointsLimit int `yaml:"debug_points_limit"`
}

// NotifyConfig tunes the transient notices in the footer.
type NotifyConfig struct {
	MaxVisible int `yaml:"max_visible"`
	ExpirySecs int `yaml:"expiry_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server ServerConfig `yaml:"server"`
	Notify NotifyConfig `yaml:"notify"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragtui/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragtui/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragtui", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Server: ServerConfig{URL: "http://localhost:8001", DebugPointsLimit: 1000},
		Notify: NotifyConfig{MaxVisible: 3, ExpirySecs: 4},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.URL == "" {
		cfg.Server.URL = "http://localhost:8001"
	}
	if cfg.Server.DebugPointsLimit == 0 {
		cfg.Server.DebugPointsLimit = 1000
	}
	if cfg.Notify.MaxVisible == 0 {
		cfg.Notify.MaxVisible = 3
	}
	if cfg.Notify.ExpirySecs == 0 {
		cfg.Notify.ExpirySecs = 4
	}
}
