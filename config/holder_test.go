package config

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func TestHolderReload(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
quota:
  daily_free: 3
`)
	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if got := h.Get().Quota.DailyFree; got != 3 {
		t.Fatalf("DailyFree = %d, want 3", got)
	}

	var observed int
	h.OnChange(func(cfg *Config) { observed = cfg.Quota.DailyFree })

	err = os.WriteFile(path, []byte(`
telegram:
  token: "123:abc"
quota:
  daily_free: 5
`), 0o600)
	if err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	if got := h.Get().Quota.DailyFree; got != 5 {
		t.Errorf("DailyFree after reload = %d, want 5", got)
	}
	if observed != 5 {
		t.Errorf("OnChange observed %d, want 5", observed)
	}
}

func TestHolderReloadKeepsOldConfigOnError(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
quota:
  daily_free: 3
`)
	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(path, []byte("storage:\n  driver: redis\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err == nil {
		t.Fatal("Reload accepted an invalid config")
	}
	if got := h.Get().Quota.DailyFree; got != 3 {
		t.Errorf("DailyFree = %d after failed reload, want the old value 3", got)
	}
}

func TestNewHolderRejectsMissingFile(t *testing.T) {
	if _, err := NewHolder("/nonexistent/ideagate.yaml", zerolog.Nop()); err == nil {
		t.Fatal("NewHolder accepted a missing file")
	}
}
