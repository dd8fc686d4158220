package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("ANTHROPIC_API_KEY", "sk-test-key")
	t.Cleanup(func() {
		os.Unsetenv("ANTHROPIC_API_KEY")
	})
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.ClaudeMaxTokens != 4096 {
		t.Errorf("expected ClaudeMaxTokens 4096, got %d", cfg.ClaudeMaxTokens)
	}
	if cfg.AnthropicRPM != 30 {
		t.Errorf("expected AnthropicRPM 30, got %d", cfg.AnthropicRPM)
	}
	if cfg.MaxArticles != 15 {
		t.Errorf("expected MaxArticles 15, got %d", cfg.MaxArticles)
	}
	if cfg.StorageDriver != "sqlite" {
		t.Errorf("expected sqlite storage driver, got %q", cfg.StorageDriver)
	}
	if cfg.ResolverInterval != 30*time.Minute {
		t.Errorf("expected 30m resolver interval, got %v", cfg.ResolverInterval)
	}
	if len(cfg.DefaultCategories) != 3 {
		t.Errorf("expected 3 default categories, got %v", cfg.DefaultCategories)
	}
}

func TestLoadFromEnv_MissingAnthropicKey(t *testing.T) {
	os.Unsetenv("ANTHROPIC_API_KEY")

	_, err := LoadFromEnv()
	if err == nil {
		t.Fatal("expected error for missing ANTHROPIC_API_KEY")
	}
}

func TestLoadFromEnv_AuthorizedUsers(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("TELEGRAM_AUTHORIZED_USERS", "123, 456,notanumber,789")
	t.Cleanup(func() {
		os.Unsetenv("TELEGRAM_AUTHORIZED_USERS")
	})

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []int64{123, 456, 789}
	if len(cfg.TelegramAuthorizedUsers) != len(want) {
		t.Fatalf("expected %d authorized users, got %d", len(want), len(cfg.TelegramAuthorizedUsers))
	}
	for i, id := range want {
		if cfg.TelegramAuthorizedUsers[i] != id {
			t.Errorf("user %d: expected %d, got %d", i, id, cfg.TelegramAuthorizedUsers[i])
		}
	}
}

func TestValidate_InvalidStorageDriver(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("STORAGE_DRIVER", "mongodb")
	t.Cleanup(func() {
		os.Unsetenv("STORAGE_DRIVER")
	})

	_, err := LoadFromEnv()
	if err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}

func TestValidate_NonPositiveRateLimit(t *testing.T) {
	cfg := &Config{
		AnthropicAPIKey: "sk-test",
		AnthropicRPM:    0,
		NewsAPIRPM:      100,
		MaxArticles:     15,
		StorageDriver:   "sqlite",
		GammaURL:        "https://gamma-api.polymarket.com",
		ClobURL:         "https://clob.polymarket.com",
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero ANTHROPIC_RPM")
	}
}

func TestGetDurationOrDefault_Invalid(t *testing.T) {
	os.Setenv("RESOLVER_INTERVAL", "not-a-duration")
	t.Cleanup(func() {
		os.Unsetenv("RESOLVER_INTERVAL")
	})
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.ResolverInterval != 30*time.Minute {
		t.Errorf("expected default interval on parse failure, got %v", cfg.ResolverInterval)
	}
}
