package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	want := []int{52, 84, 119, 204, 239, 270}
	if len(cfg.ScoreThresholds) != len(want) {
		t.Fatalf("thresholds = %v", cfg.ScoreThresholds)
	}
	for i, v := range want {
		if cfg.ScoreThresholds[i] != v {
			t.Fatalf("thresholds = %v, want %v", cfg.ScoreThresholds, want)
		}
	}
	if cfg.Notify.Mode != "log" {
		t.Fatalf("notify mode = %q", cfg.Notify.Mode)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
addr: ":9090"
jwt_secret: "file-secret"
sqlite_path: "/tmp/advisorforms.db"
base_url: "https://forms.example.com"
score_thresholds: [10, 20, 30, 40, 50, 60]
notify:
  mode: smtp
  smtp_addr: "mail.example.com:25"
  from: "forms@example.com"
  to: "team@example.com"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.JWTSecret != "file-secret" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ScoreThresholds[0] != 10 || cfg.ScoreThresholds[5] != 60 {
		t.Fatalf("thresholds = %v", cfg.ScoreThresholds)
	}
	if cfg.Notify.Mode != "smtp" || cfg.Notify.SMTPAddr != "mail.example.com:25" {
		t.Fatalf("notify = %+v", cfg.Notify)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ADVISOR_ADDR", ":7070")
	t.Setenv("ADVISOR_JWT_SECRET", "env-secret")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Fatalf("jwt secret = %q", cfg.JWTSecret)
	}
}

func TestLoadRejectsBadThresholds(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.yaml")
	if err := os.WriteFile(short, []byte("score_thresholds: [1, 2, 3]\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(short); err == nil {
		t.Fatalf("expected error for wrong threshold count")
	}

	unsorted := filepath.Join(dir, "unsorted.yaml")
	if err := os.WriteFile(unsorted, []byte("score_thresholds: [10, 5, 30, 40, 50, 60]\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(unsorted); err == nil {
		t.Fatalf("expected error for non-ascending thresholds")
	}
}
