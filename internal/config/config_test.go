package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "jwt_secret: test-secret\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.JWTSecret != "test-secret" {
		t.Fatalf("Expected jwt secret to be read, got %q", cfg.JWTSecret)
	}
	if cfg.HTTPServer.Address != "localhost:8080" {
		t.Fatalf("Expected default address, got %q", cfg.HTTPServer.Address)
	}
	if cfg.Reaper.MaxAge != 24*time.Hour {
		t.Fatalf("Expected 24h reaper max age, got %s", cfg.Reaper.MaxAge)
	}
	if cfg.Reaper.Schedule != "0 */5 * * * *" {
		t.Fatalf("Unexpected reaper schedule %q", cfg.Reaper.Schedule)
	}
	if cfg.Storage != "postgres" {
		t.Fatalf("Expected postgres storage by default, got %q", cfg.Storage)
	}
	if cfg.Upload.LockTTL != 30*time.Second {
		t.Fatalf("Expected 30s lock ttl, got %s", cfg.Upload.LockTTL)
	}
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
env: local
jwt_secret: s3cret
upload:
  temp_dir: /var/tmp/dz
  uploads_dir: /srv/uploads
  base_url: https://cdn.example.com/uploads
  max_file_size: 1024
  allowed_extensions: [jpg, png]
reaper:
  max_age: 2h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Env != "local" {
		t.Fatalf("Expected env local, got %q", cfg.Env)
	}
	if cfg.Upload.TempDir != "/var/tmp/dz" || cfg.Upload.UploadsDir != "/srv/uploads" {
		t.Fatalf("Unexpected upload dirs: %+v", cfg.Upload)
	}
	if cfg.Upload.MaxFileSize != 1024 {
		t.Fatalf("Expected max file size 1024, got %d", cfg.Upload.MaxFileSize)
	}
	if len(cfg.Upload.AllowedExtensions) != 2 || cfg.Upload.AllowedExtensions[1] != "png" {
		t.Fatalf("Unexpected allowed extensions: %v", cfg.Upload.AllowedExtensions)
	}
	if cfg.Reaper.MaxAge != 2*time.Hour {
		t.Fatalf("Expected 2h max age, got %s", cfg.Reaper.MaxAge)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestLoad_RejectsOverlappingUploadDirs(t *testing.T) {
	cases := []struct {
		name          string
		temp, uploads string
	}{
		{"temp inside uploads", "/srv/uploads/tmp", "/srv/uploads"},
		{"same dir", "/srv/uploads", "/srv/uploads/"},
		{"uploads inside temp", "/var/tmp/dz", "/var/tmp/dz/public"},
	}

	for _, tc := range cases {
		path := writeConfig(t, "jwt_secret: s\nupload:\n  temp_dir: "+tc.temp+"\n  uploads_dir: "+tc.uploads+"\n")
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected overlapping dirs to be rejected", tc.name)
		}
	}
}

func TestCheckDirs_SiblingsAllowed(t *testing.T) {
	u := Upload{TempDir: "/srv/uploads-tmp", UploadsDir: "/srv/uploads"}
	if err := u.CheckDirs(); err != nil {
		t.Fatalf("Expected sibling dirs to be accepted, got %v", err)
	}
}
