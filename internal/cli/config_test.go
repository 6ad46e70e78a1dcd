package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigSaveAndLoad(t *testing.T) {
	// Use a temp dir as home
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := CLIConfig{
		APIBaseURL:     "http://myhost:9090/api",
		FirebaseAPIKey: "AIzaTest",
		GoogleClientID: "client.apps.googleusercontent.com",
	}

	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Verify file exists
	path := filepath.Join(tmp, ".config", "hn", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not found: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg != (CLIConfig{}) {
		t.Error("expected zero-value config for missing file")
	}
}

func TestConfigLoadInvalid(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	path := filepath.Join(tmp, ".config", "hn", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("api_base_url: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig(); err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("err = %v, want parse error", err)
	}
}

func TestResolveConfigBaseURLFromEnv(t *testing.T) {
	t.Setenv("HN_API_BASE_URL", "http://custom:1234/api")
	t.Setenv("HOME", t.TempDir())

	url := resolvedBaseURL(t)
	if url != "http://custom:1234/api" {
		t.Errorf("url = %q, want %q", url, "http://custom:1234/api")
	}
}

func TestResolveConfigBaseURLFromConfig(t *testing.T) {
	t.Setenv("HN_API_BASE_URL", "")
	t.Setenv("HOME", t.TempDir())

	if err := saveConfig(CLIConfig{APIBaseURL: "http://saved/api"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if url := resolvedBaseURL(t); url != "http://saved/api" {
		t.Errorf("url = %q", url)
	}
}

func TestResolveConfigBaseURLDefault(t *testing.T) {
	t.Setenv("HN_API_BASE_URL", "")
	t.Setenv("HOME", t.TempDir())

	url := resolvedBaseURL(t)
	if url != "http://localhost:5000/api" {
		t.Errorf("url = %q, want %q", url, "http://localhost:5000/api")
	}
}

func TestResolveConfigEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := saveConfig(CLIConfig{FirebaseAPIKey: "from-file", GoogleClientID: "file-client"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	t.Setenv("HN_FIREBASE_API_KEY", "from-env")
	t.Setenv("HN_GOOGLE_CLIENT_ID", "")

	cfg, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.FirebaseAPIKey != "from-env" {
		t.Errorf("api key = %q, want env override", cfg.FirebaseAPIKey)
	}
	if cfg.GoogleClientID != "file-client" {
		t.Errorf("client id = %q, empty env should not override", cfg.GoogleClientID)
	}
}

func TestConfigSetCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := saveConfig(CLIConfig{FirebaseAPIKey: "keep"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, _, err := executeCommand("", "config", "set", "api_base_url", "http://example.test/api"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "http://example.test/api" || cfg.FirebaseAPIKey != "keep" {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, _, err := executeCommand("", "config", "set", "nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HN_GOOGLE_CLIENT_SECRET", "supersecretvalue")

	out, _, err := executeCommand("", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "supersecretvalue") {
		t.Error("secret printed in clear")
	}
	if !strings.Contains(out, "supe…") {
		t.Errorf("expected masked secret in %q", out)
	}
}

func resolvedBaseURL(t *testing.T) string {
	t.Helper()
	cfg, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return cfg.APIBaseURL
}
