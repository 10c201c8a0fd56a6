package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := Path(), "/custom/config/bm/config.yml"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := Path(), filepath.Join(home, ".config", "bm", "config.yml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestLoad_NotFound(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if cfg.Style != want.Style || cfg.Paper != want.Paper || cfg.ADSDisplay != want.ADSDisplay {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoad_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("paper: a4\nads_display: 50\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Paper != "a4" {
		t.Errorf("Paper = %q, want %q", cfg.Paper, "a4")
	}
	if cfg.ADSDisplay != 50 {
		t.Errorf("ADSDisplay = %d, want 50", cfg.ADSDisplay)
	}
	if cfg.Style != "autumn" {
		t.Errorf("Style = %q, want default %q", cfg.Style, "autumn")
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("paper: [a4\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Paper = "a4"
	cfg.ADSToken = "secret"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Paper != "a4" || got.ADSToken != "secret" {
		t.Errorf("Load() after Save = %+v", got)
	}
}

func TestHomeDir(t *testing.T) {
	cfg := Default()

	t.Setenv("BM_HOME", "/env/bm")
	cfg.Home = "/config/bm"
	if got := cfg.HomeDir(); got != "/env/bm" {
		t.Errorf("HomeDir() = %q, want BM_HOME", got)
	}

	t.Setenv("BM_HOME", "")
	if got := cfg.HomeDir(); got != "/config/bm" {
		t.Errorf("HomeDir() = %q, want home setting", got)
	}

	cfg.Home = ""
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := cfg.HomeDir(), filepath.Join(home, ".bm"); got != want {
		t.Errorf("HomeDir() = %q, want %q", got, want)
	}
}

func TestToken(t *testing.T) {
	cfg := Default()
	cfg.ADSToken = "from-file"

	t.Setenv("ADS_TOKEN", "")
	if got := cfg.Token(); got != "from-file" {
		t.Errorf("Token() = %q, want %q", got, "from-file")
	}
	t.Setenv("ADS_TOKEN", "from-env")
	if got := cfg.Token(); got != "from-env" {
		t.Errorf("Token() = %q, want %q", got, "from-env")
	}
}

func TestSet(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{"style", "monokai", false},
		{"style", "not-a-style", true},
		{"text_editor", "default", false},
		{"pdf_reader", "no-such-reader-bm", true},
		{"paper", "a4", false},
		{"paper", "legal", true},
		{"ads_token", "abc", false},
		{"ads_display", "10", false},
		{"ads_display", "0", true},
		{"ads_display", "ten", true},
		{"home", filepath.Join(dir, "bm"), false},
		{"home", filepath.Join(dir, "missing", "bm"), true},
		{"home", filepath.Join(dir, "bm.txt"), true},
		{"colour", "red", true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := Default()
			err := cfg.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			t.Setenv("BM_HOME", "")
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) error = %v", tt.key, err)
			}
			if got != tt.value {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.value)
			}
		})
	}
}

func TestGetSet_UnknownKey(t *testing.T) {
	cfg := Default()
	_, err := cfg.Get("colour")
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get() error = %v, want ErrUnknownKey", err)
	}
	err = cfg.Set("colour", "red")
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set() error = %v, want ErrUnknownKey", err)
	}
	if !strings.Contains(err.Error(), "ads_display") {
		t.Errorf("Set() error = %q, want list of parameters", err)
	}
}
