package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/contentpro/ideagate/domain/payment"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ideagate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Quota.DailyFree != 3 || cfg.Quota.SubscriptionDays != 30 {
		t.Errorf("Quota = %+v, want 3 free / 30 days", cfg.Quota)
	}
	if cfg.Storage.Driver != "jsonfile" || cfg.Storage.Path != "users_data.json" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Generator.Mode != "openai" || cfg.Generator.Model != "gpt-4" {
		t.Errorf("Generator = %+v", cfg.Generator)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q", cfg.Metrics.Path)
	}
	if cfg.Telegram.Timeout != 50*time.Second {
		t.Errorf("Telegram.Timeout = %v", cfg.Telegram.Timeout)
	}

	// Default price table covers all three currencies.
	table := cfg.PriceTable()
	if len(table) != 3 {
		t.Fatalf("PriceTable = %v", table)
	}
	if table[payment.CurrencyUSDT].AmountMinorUnits != 1000 ||
		table[payment.CurrencyTON].AmountMinorUnits != 1500 ||
		table[payment.CurrencyStars].AmountMinorUnits != 10000 {
		t.Errorf("default prices = %v", table)
	}
	if table[payment.CurrencyStars].Denomination != "XTR" {
		t.Errorf("Stars denomination = %q, want XTR", table[payment.CurrencyStars].Denomination)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
telegram:
  token: "123:abc"
quota:
  daily_free: 5
  subscription_days: 7
prices:
  - currency: TON
    amount_minor: 2000
    denomination: USD
storage:
  driver: sqlite
  path: /tmp/bot.db
generator:
  mode: static
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Quota.DailyFree != 5 || cfg.Quota.SubscriptionDays != 7 {
		t.Errorf("Quota = %+v", cfg.Quota)
	}
	table := cfg.PriceTable()
	if len(table) != 1 || table[payment.CurrencyTON].AmountMinorUnits != 2000 {
		t.Errorf("PriceTable = %v", table)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.Path != "/tmp/bot.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
}

func TestLoadExpandsEnvInFile(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "999:xyz")
	path := writeConfig(t, `
telegram:
  token: "${TEST_BOT_TOKEN}"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Telegram.Token != "999:xyz" {
		t.Errorf("Token = %q, want expanded env value", cfg.Telegram.Token)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("IDEAGATE_QUOTA_DAILY_FREE", "10")
	t.Setenv("IDEAGATE_STORAGE_DRIVER", "memory")
	path := writeConfig(t, `
telegram:
  token: "123:abc"
quota:
  daily_free: 3
storage:
  driver: jsonfile
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Quota.DailyFree != 10 {
		t.Errorf("DailyFree = %d, want env override 10", cfg.Quota.DailyFree)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Driver = %q, want env override memory", cfg.Storage.Driver)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IDEAGATE_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("IDEAGATE_GENERATOR_MODE", "static")

	if !HasEnvConfig() {
		t.Fatal("HasEnvConfig = false with token set")
	}
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" || cfg.Generator.Mode != "static" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Setenv("IDEAGATE_TELEGRAM_TOKEN", "")

	// Neither file nor env: error.
	if _, err := LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadWithFallback succeeded with no configuration")
	}

	// Env only.
	t.Setenv("IDEAGATE_TELEGRAM_TOKEN", "123:abc")
	cfg, err := LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("Token = %q", cfg.Telegram.Token)
	}
}

func TestValidateRejects(t *testing.T) {
	t.Setenv("IDEAGATE_TELEGRAM_TOKEN", "")

	cases := []struct {
		name string
		yaml string
	}{
		{"missing token", ""},
		{"bad driver", "storage:\n  driver: redis\n"},
		{"bad generator mode", "generator:\n  mode: llama\n"},
		{"negative quota", "quota:\n  daily_free: -1\n"},
		{"negative days", "quota:\n  subscription_days: -5\n"},
		{"unknown currency", "prices:\n  - currency: BTC\n    amount_minor: 1\n    denomination: USD\n"},
		{"zero amount", "prices:\n  - currency: TON\n    amount_minor: 0\n    denomination: USD\n"},
		{"missing denomination", "prices:\n  - currency: TON\n    amount_minor: 100\n"},
		{"duplicate currency", "prices:\n  - currency: TON\n    amount_minor: 100\n    denomination: USD\n  - currency: ton\n    amount_minor: 200\n    denomination: USD\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			yaml := tc.yaml
			if tc.name != "missing token" {
				yaml = "telegram:\n  token: \"123:abc\"\n" + yaml
			}
			path := writeConfig(t, yaml)
			if _, err := Load(path); err == nil {
				t.Errorf("Load accepted invalid config:\n%s", yaml)
			}
		})
	}
}
