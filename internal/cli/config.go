package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/homenest/internal/client"
)

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	APIBaseURL         string `yaml:"api_base_url,omitempty"`
	FirebaseAPIKey     string `yaml:"firebase_api_key,omitempty"`
	GoogleClientID     string `yaml:"google_client_id,omitempty"`
	GoogleClientSecret string `yaml:"google_client_secret,omitempty"`
	StorePath          string `yaml:"store_path,omitempty"`

	// Point at the Auth emulator or a test server.
	IdentityToolkitURL string `yaml:"identity_toolkit_url,omitempty"`
	SecureTokenURL     string `yaml:"secure_token_url,omitempty"`
}

// configKeys maps yaml keys to their fields for `hn config set`.
var configKeys = map[string]func(*CLIConfig) *string{
	"api_base_url":         func(c *CLIConfig) *string { return &c.APIBaseURL },
	"firebase_api_key":     func(c *CLIConfig) *string { return &c.FirebaseAPIKey },
	"google_client_id":     func(c *CLIConfig) *string { return &c.GoogleClientID },
	"google_client_secret": func(c *CLIConfig) *string { return &c.GoogleClientSecret },
	"store_path":           func(c *CLIConfig) *string { return &c.StorePath },
	"identity_toolkit_url": func(c *CLIConfig) *string { return &c.IdentityToolkitURL },
	"secure_token_url":     func(c *CLIConfig) *string { return &c.SecureTokenURL },
}

// envOverrides maps environment variables to the fields they replace.
var envOverrides = map[string]func(*CLIConfig) *string{
	"HN_API_BASE_URL":         configKeys["api_base_url"],
	"HN_FIREBASE_API_KEY":     configKeys["firebase_api_key"],
	"HN_GOOGLE_CLIENT_ID":     configKeys["google_client_id"],
	"HN_GOOGLE_CLIENT_SECRET": configKeys["google_client_secret"],
	"HN_IDENTITY_TOOLKIT_URL": configKeys["identity_toolkit_url"],
	"HN_SECURE_TOKEN_URL":     configKeys["secure_token_url"],
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "hn", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// saveConfig writes the CLI config to disk.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// resolveConfig returns the effective configuration: the config file, then
// environment overrides, then defaults.
func resolveConfig() (CLIConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return CLIConfig{}, err
	}
	for env, field := range envOverrides {
		if v := os.Getenv(env); v != "" {
			*field(&cfg) = v
		}
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = client.DefaultBaseURL
	}
	return cfg, nil
}
