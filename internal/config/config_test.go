package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads, restoring them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_PATH", "PORT", "DATABASE_PATH", "REPLICA_PATH", "JWT_SECRET",
		"APP_ENV", "LOG_LEVEL", "EXPORT_DIR", "EXPORT_FILENAME",
		"EXPORT_SWEEP_SCHEDULE", "EXPORT_SWEEP_MAX_AGE", "ALLOWED_ORIGINS",
		"SESSION_LIFETIME",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want 8080", cfg.ServerPort)
	}
	if cfg.ReplicaPath != cfg.DatabasePath {
		t.Errorf("ReplicaPath = %q, want database path %q", cfg.ReplicaPath, cfg.DatabasePath)
	}
	if want := filepath.Join(os.TempDir(), "userexport"); cfg.ExportDir != want {
		t.Errorf("ExportDir = %q, want %q", cfg.ExportDir, want)
	}
	if cfg.ExportFilename != "mediawiki_users.csv" {
		t.Errorf("ExportFilename = %q", cfg.ExportFilename)
	}
	if len(cfg.Catalog) != 6 {
		t.Errorf("len(Catalog) = %d, want 6", len(cfg.Catalog))
	}
	if rights := cfg.GroupRights["sysop"]; len(rights) != 1 || rights[0] != "userexport" {
		t.Errorf("GroupRights[sysop] = %v", rights)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
port: 9000
database_path: /data/wiki.db
replica_path: /replica/wiki.db
log_level: debug
sweep_max_age: 30m
catalog:
  - name: user_name
    default: true
  - name: user_email
    default: true
group_rights:
  bureaucrat: [userexport]
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.ServerPort != 9100 {
		t.Errorf("ServerPort = %d, want env override 9100", cfg.ServerPort)
	}
	if cfg.DatabasePath != "/data/wiki.db" || cfg.ReplicaPath != "/replica/wiki.db" {
		t.Errorf("paths = %q, %q", cfg.DatabasePath, cfg.ReplicaPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.SweepMaxAge != 30*time.Minute {
		t.Errorf("SweepMaxAge = %v, want 30m", cfg.SweepMaxAge)
	}
	if len(cfg.Catalog) != 2 || cfg.Catalog[1].Name != "user_email" || !cfg.Catalog[1].DefaultSelected {
		t.Errorf("Catalog = %+v", cfg.Catalog)
	}
	if _, ok := cfg.GroupRights["sysop"]; ok {
		t.Error("file group rights should replace the defaults")
	}
	if len(cfg.GroupRights["bureaucrat"]) != 1 {
		t.Errorf("GroupRights = %v", cfg.GroupRights)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad port", map[string]string{"PORT": "http"}, "invalid PORT"},
		{"port range", map[string]string{"PORT": "70000"}, "out of range"},
		{"bad duration", map[string]string{"EXPORT_SWEEP_MAX_AGE": "soon"}, "EXPORT_SWEEP_MAX_AGE"},
		{"bad schedule", map[string]string{"EXPORT_SWEEP_SCHEDULE": "whenever"}, "sweep schedule"},
		{"production without secret", map[string]string{"APP_ENV": "production"}, "JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
