package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReadDefaults(t *testing.T) {
	cfg, err := Read("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "5001" || cfg.DownloadDir != "static/downloads" || cfg.PublicBaseURL != "http://127.0.0.1:5001" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.OpenAITimeout != 120*time.Second || cfg.GeneratorBackend != "openai" || cfg.StorageBackend != "filesystem" {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestReadEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("PUBLIC_BASE_URL", "https://docs.example.com/")
	t.Setenv("OPENAI_TIMEOUT", "45s")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Read("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.PublicBaseURL != "https://docs.example.com" {
		t.Errorf("base url = %q", cfg.PublicBaseURL)
	}
	if cfg.OpenAITimeout != 45*time.Second {
		t.Errorf("timeout = %v", cfg.OpenAITimeout)
	}
	if !cfg.MinioUseSSL {
		t.Errorf("minio ssl not set")
	}
}

func TestReadFileUnderEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estatedocs.yaml")
	body := "port: \"9000\"\nlog_format: json\nstorage_backend: minio\nminio_endpoint: localhost:9000\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7000")

	cfg, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "7000" {
		t.Errorf("env should win over file, port = %q", cfg.Port)
	}
	if cfg.LogFormat != "json" || cfg.StorageBackend != "minio" || cfg.MinioEndpoint != "localhost:9000" {
		t.Errorf("file values not applied: %+v", cfg)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv(FileEnv, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"OPENAI_API_KEY", "STRIPE_SECRET_KEY"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadMockBackendNeedsNoOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("GENERATOR_BACKEND", "mock")
	t.Setenv(FileEnv, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GeneratorBackend != "mock" {
		t.Fatalf("backend = %q", cfg.GeneratorBackend)
	}
}

func TestValidateStorage(t *testing.T) {
	cfg := &Config{StorageBackend: "minio", DownloadDir: "d"}
	if err := cfg.ValidateStorage(); err == nil {
		t.Fatal("minio without endpoint accepted")
	}
	cfg.MinioEndpoint, cfg.MinioBucket = "localhost:9000", "docs"
	if err := cfg.ValidateStorage(); err != nil {
		t.Fatal(err)
	}
	cfg.StorageBackend = "ftp"
	if err := cfg.ValidateStorage(); err == nil {
		t.Fatal("unknown backend accepted")
	}
}
