package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir(t *testing.T) {
	// Clear XDG_CACHE_HOME to test default behavior
	t.Setenv("XDG_CACHE_HOME", "")
	os.Unsetenv("XDG_CACHE_HOME")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-cache", appName) {
		t.Errorf("cacheDir() = %q, should respect XDG_CACHE_HOME", dir)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	os.Unsetenv("XDG_CONFIG_HOME")

	path, err := defaultConfigPath()
	if err != nil {
		t.Fatalf("defaultConfigPath() error: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(appName, "config.toml")) {
		t.Errorf("defaultConfigPath() = %q, should end with %s/config.toml", path, appName)
	}
}

func TestLoadConfigMissingDefaultIsZero(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Layout.MaxSystemWidth != 0 || cfg.Server.Addr != "" {
		t.Errorf("missing default config should be zero, got %+v", cfg)
	}
}

func TestLoadConfigExplicitMissingFails(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("explicit missing config path should fail")
	}
}

func TestLoadConfigParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[layout]
max_system_width = 1200.0
stretch_to_fill = true

[layout.spacing]
base_spacing = 25.0
duration_factor = 40.0
minimum_spacing = 25.0

[server]
addr = ":9090"
redis_addr = "localhost:6379"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Layout.MaxSystemWidth != 1200 {
		t.Errorf("MaxSystemWidth = %v, want 1200", cfg.Layout.MaxSystemWidth)
	}
	if !cfg.Layout.StretchToFill {
		t.Error("StretchToFill should be true")
	}
	if cfg.Layout.Spacing.BaseSpacing != 25 {
		t.Errorf("BaseSpacing = %v, want 25", cfg.Layout.Spacing.BaseSpacing)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Server.RedisAddr != "localhost:6379" {
		t.Errorf("Server.RedisAddr = %q", cfg.Server.RedisAddr)
	}
}
