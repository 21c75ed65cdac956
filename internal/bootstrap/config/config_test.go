package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.ApplicationsFile != "submitted_applications.log.json" {
		t.Fatalf("ApplicationsFile = %q", cfg.Storage.ApplicationsFile)
	}
	if cfg.Storage.MaxUploadBytes != 16<<20 {
		t.Fatalf("MaxUploadBytes = %d", cfg.Storage.MaxUploadBytes)
	}
	if cfg.HTTP.ShutdownTimeout != 10*time.Second {
		t.Fatalf("ShutdownTimeout = %v", cfg.HTTP.ShutdownTimeout)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("storage:\n  applications_file: apps.json\n  upload_dir: cvs\ntelegram:\n  hr_chat_id: 12345\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("BRIDGEE_HTTP_ADDR", ":9090")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.ApplicationsFile != "apps.json" || cfg.Storage.UploadDir != "cvs" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Telegram.HRChatID != 12345 {
		t.Fatalf("HRChatID = %d", cfg.Telegram.HRChatID)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("HTTP.Addr = %q, want env override", cfg.HTTP.Addr)
	}
}

func TestLoadRejectsUnknownArtifactBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BRIDGEE_STORAGE_ARTIFACT_BACKEND", "s3")

	if _, err := Load(context.Background(), ""); err == nil {
		t.Fatalf("Load() error = nil, want unsupported backend")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load() error = nil, want read error")
	}
}
