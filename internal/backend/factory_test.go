package backend

import (
	"context"
	"path/filepath"
	"testing"

	"finboard/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"postgres with url", Config{Type: PostgresBackend, DatabaseURL: "postgres://localhost/db"}, false},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		if res.Store == nil || res.Cleanup != nil {
			t.Fatalf("unexpected result: %+v", res)
		}
		if err := res.Store.Ping(ctx); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "f.db")})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		defer res.Cleanup()
		if err := res.Store.Ping(ctx); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}
