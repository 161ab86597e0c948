package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name: "valid sqlite backend config",
			config: Config{
				Port:           "8080",
				DataBackend:    "sqlite",
				SQLiteDBPath:   "./test.db",
				BackupInterval: time.Hour,
				CacheTTL:       30 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "valid memory backend config",
			config: Config{
				Port:           "9000",
				DataBackend:    "memory",
				BackupInterval: time.Hour,
				CacheTTL:       30 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "invalid port - non-numeric",
			config: Config{
				Port:           "abc",
				DataBackend:    "memory",
				BackupInterval: time.Hour,
				CacheTTL:       30 * time.Second,
			},
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name: "invalid port - out of range",
			config: Config{
				Port:           "70000",
				DataBackend:    "memory",
				BackupInterval: time.Hour,
				CacheTTL:       30 * time.Second,
			},
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name: "invalid data backend",
			config: Config{
				Port:           "8080",
				DataBackend:    "redis",
				BackupInterval: time.Hour,
				CacheTTL:       30 * time.Second,
			},
			wantErr:     true,
			errorString: "invalid data backend 'redis': must be one of [memory sqlite]",
		},
		{
			name: "sqlite backend missing database path",
			config: Config{
				Port:           "8080",
				DataBackend:    "sqlite",
				SQLiteDBPath:   "",
				BackupInterval: time.Hour,
				CacheTTL:       30 * time.Second,
			},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name: "backup interval too short",
			config: Config{
				Port:           "8080",
				DataBackend:    "memory",
				BackupInterval: time.Second,
				CacheTTL:       30 * time.Second,
			},
			wantErr:     true,
			errorString: "invalid backup interval",
		},
		{
			name: "backup interval too long",
			config: Config{
				Port:           "8080",
				DataBackend:    "memory",
				BackupInterval: 8 * 24 * time.Hour,
				CacheTTL:       30 * time.Second,
			},
			wantErr:     true,
			errorString: "invalid backup interval",
		},
		{
			name: "cache TTL too short",
			config: Config{
				Port:           "8080",
				DataBackend:    "memory",
				BackupInterval: time.Hour,
				CacheTTL:       time.Millisecond,
			},
			wantErr:     true,
			errorString: "invalid cache TTL",
		},
		{
			name: "multiple errors combined",
			config: Config{
				Port:           "abc",
				DataBackend:    "redis",
				BackupInterval: time.Hour,
				CacheTTL:       30 * time.Second,
			},
			wantErr:     true,
			errorString: "invalid port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected error, got nil")
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Validate() error %q does not contain %q", err, tt.errorString)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCreatesSQLiteDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	cfg := Config{
		Port:           "8080",
		DataBackend:    "sqlite",
		SQLiteDBPath:   filepath.Join(dir, "test.db"),
		BackupInterval: time.Hour,
		CacheTTL:       30 * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("database directory not created: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "SQLITE_DB_PATH", "DATA_BACKEND", "SEED_DATA", "BACKUP_INTERVAL", "CACHE_TTL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" || cfg.DataBackend != "sqlite" {
		t.Errorf("defaults: port=%s backend=%s", cfg.Port, cfg.DataBackend)
	}
	if cfg.BackupInterval != time.Hour || cfg.CacheTTL != 30*time.Second {
		t.Errorf("defaults: backup=%v ttl=%v", cfg.BackupInterval, cfg.CacheTTL)
	}
	if cfg.SeedData {
		t.Error("seed should default to false")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SEED_DATA", "true")
	t.Setenv("BACKUP_INTERVAL", "2h")
	t.Setenv("CACHE_TTL", "5s")

	cfg := Load()
	if cfg.Port != "9999" || cfg.DataBackend != "memory" || !cfg.SeedData {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.BackupInterval != 2*time.Hour || cfg.CacheTTL != 5*time.Second {
		t.Errorf("durations not applied: %+v", cfg)
	}
}
