package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"diggdaily/internal/digg"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := Defaults()
	original.DownloadDir = filepath.Join(dir, "episodes")
	original.NtfyTopic = "https://ntfy.sh/digg-daily"

	if err := Save(path, original); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.DownloadDir != original.DownloadDir {
		t.Fatalf("DownloadDir mismatch: got %q want %q", loaded.DownloadDir, original.DownloadDir)
	}
	if loaded.ColorTheme != original.ColorTheme {
		t.Fatalf("ColorTheme mismatch: got %q want %q", loaded.ColorTheme, original.ColorTheme)
	}
	if loaded.NtfyTopic != original.NtfyTopic {
		t.Fatalf("NtfyTopic mismatch: got %q want %q", loaded.NtfyTopic, original.NtfyTopic)
	}
}

func TestEnsureCreatesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	ctx := context.Background()
	downloadDir := filepath.Join(dir, "episodes")
	t.Setenv("DIGGDAILY_DOWNLOAD_DIR", downloadDir)

	cfg, err := Ensure(ctx, path)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	if cfg.DownloadDir == "" {
		t.Fatalf("expected download directory to be set")
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}

	if _, err := os.Stat(downloadDir); err != nil {
		t.Fatalf("expected download directory to be created: %v", err)
	}
}

func TestLoadFillsMissingEndpoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("user_agent: custom/1.0\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.APIURL != digg.DefaultAPIURL {
		t.Fatalf("APIURL not defaulted: %q", loaded.APIURL)
	}
	if loaded.CacheWindowMin != 30 {
		t.Fatalf("expected default cache window 30, got %d", loaded.CacheWindowMin)
	}
	if loaded.FeedLimit != 50 {
		t.Fatalf("expected default feed limit 50, got %d", loaded.FeedLimit)
	}
	if loaded.UserAgent != "custom/1.0" {
		t.Fatalf("explicit user agent lost: %q", loaded.UserAgent)
	}
}

func TestCacheWindowDefault(t *testing.T) {
	cfg := Defaults()
	if cfg.CacheWindowMin != 30 {
		t.Fatalf("expected default CacheWindowMin=30, got %d", cfg.CacheWindowMin)
	}
}

func TestCacheWindowSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := Defaults()
	original.CacheWindowMin = 45

	if err := Save(path, original); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.CacheWindowMin != 45 {
		t.Fatalf("CacheWindowMin mismatch: got %d want %d", loaded.CacheWindowMin, 45)
	}
}
