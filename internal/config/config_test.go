package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Defaults", func(t *testing.T) {
		setEnv("DATABASE_PATH", "")
		setEnv("PORT", "")
		setEnv("PLAN_TIMEOUT", "")
		setEnv("PLAN_WORKERS", "")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DatabasePath != "data/konbini.db" {
			t.Errorf("Expected default DatabasePath, got '%s'", cfg.DatabasePath)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected Port '8080', got '%s'", cfg.Port)
		}
		if cfg.PlanTimeout != 10*time.Second {
			t.Errorf("Expected PlanTimeout 10s, got %v", cfg.PlanTimeout)
		}
		if cfg.PlanWorkers < 1 {
			t.Errorf("Expected at least one worker, got %d", cfg.PlanWorkers)
		}
	})

	t.Run("Success", func(t *testing.T) {
		setEnv("DATABASE_PATH", "/tmp/k.db")
		setEnv("PORT", ":9000")
		setEnv("PLAN_TIMEOUT", "2s")
		setEnv("PLAN_WORKERS", "3")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "11, 22")
		setEnv("ADMIN_TELEGRAM_ID", "11")
		setEnv("API_JWT_SECRET", "s3cret")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Port != "9000" {
			t.Errorf("Expected Port '9000', got '%s'", cfg.Port)
		}
		if cfg.PlanTimeout != 2*time.Second || cfg.PlanWorkers != 3 {
			t.Errorf("Unexpected planner settings %v / %d", cfg.PlanTimeout, cfg.PlanWorkers)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[1] != 22 {
			t.Errorf("Unexpected allowed ids %v", cfg.TelegramAllowedUserIDs)
		}
		if cfg.AdminTelegramID != 11 || cfg.JWTSecret != "s3cret" {
			t.Errorf("Unexpected admin/secret %d/%s", cfg.AdminTelegramID, cfg.JWTSecret)
		}
	})

	t.Run("InvalidTimeout", func(t *testing.T) {
		setEnv("PLAN_TIMEOUT", "soon")
		setEnv("PLAN_WORKERS", "")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for invalid PLAN_TIMEOUT, got nil")
		}
		expectedError := `PLAN_TIMEOUT must be a positive duration, got "soon"`
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("InvalidWorkers", func(t *testing.T) {
		setEnv("PLAN_TIMEOUT", "")
		setEnv("PLAN_WORKERS", "0")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for PLAN_WORKERS=0, got nil")
		}
	})

	t.Run("InvalidAllowedIDs", func(t *testing.T) {
		setEnv("PLAN_WORKERS", "")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "11,abc")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for a non-numeric user id, got nil")
		}
	})
}

func TestRequireTelegram(t *testing.T) {
	cfg := &Config{TelegramBotToken: "token"}
	err := cfg.RequireTelegram()
	if err == nil || err.Error() != "TELEGRAM_WEBHOOK_URL environment variable not set" {
		t.Errorf("Unexpected error %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CATALOG_PATH=/srv/catalog.yaml\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CATALOG_PATH", "")
	os.Unsetenv("CATALOG_PATH")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := os.Getenv("CATALOG_PATH"); got != "/srv/catalog.yaml" {
		t.Errorf("Expected CATALOG_PATH from .env, got '%s'", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("Expected a missing .env to be ignored, got %v", err)
	}
}
