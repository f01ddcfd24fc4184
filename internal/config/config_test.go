package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/yuanying/epub2txt/internal/roles"
)

func TestNewDefaultValid(t *testing.T) {
	cfg := NewDefault()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if cfg.Gaiji.PlaceholderRune() != '�' {
		t.Errorf("PlaceholderRune() = %q", cfg.Gaiji.PlaceholderRune())
	}
	opts := cfg.Roles.Options()
	if opts.Active != nil || opts.Keywords != nil || opts.Reliable != nil {
		t.Errorf("default Options() = %+v, want zero value", opts)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"unknown active role", func(c *Config) { c.Roles.Active = []string{"main", "preface"} }, "unknown role"},
		{"main inactive", func(c *Config) { c.Roles.Active = []string{"cover", "afterword"} }, "must be active"},
		{"unknown keyword role", func(c *Config) { c.Roles.Keywords = map[string][]string{"appendix": {"付録"}} }, "unknown role"},
		{"unknown reliable role", func(c *Config) { c.Roles.Reliable = map[string][]string{"x": {"y"}} }, "unknown role"},
		{"empty placeholder", func(c *Config) { c.Gaiji.Placeholder = "" }, "placeholder"},
		{"long placeholder", func(c *Config) { c.Gaiji.Placeholder = "〓〓" }, "single character"},
		{"empty class", func(c *Config) { c.Gaiji.Classes = []string{""} }, "classes"},
		{"negative height", func(c *Config) { c.Gaiji.ExportHeight = -1 }, "export_height"},
		{"valid subset", func(c *Config) { c.Roles.Active = []string{"Main", "copyright"} }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestRolesOptions(t *testing.T) {
	c := RolesConfig{
		Active:   []string{"main", "afterword"},
		Keywords: map[string][]string{"afterword": {"あとがき"}},
		Reliable: map[string][]string{"copyright": {"奥付"}},
	}
	opts := c.Options()
	if !slices.Equal(opts.Active, []roles.Role{roles.Main, roles.Afterword}) {
		t.Errorf("Active = %v", opts.Active)
	}
	if !slices.Equal(opts.Keywords[roles.Afterword], []string{"あとがき"}) {
		t.Errorf("Keywords = %v", opts.Keywords)
	}
	if !slices.Equal(opts.Reliable[roles.Copyright], []string{"奥付"}) {
		t.Errorf("Reliable = %v", opts.Reliable)
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil || cfg.Gaiji.ExportHeight != 64 {
		t.Fatalf("Load(\"\") = %+v, %v", cfg, err)
	}

	t.Setenv("TEST_CATALOG", "/tmp/catalog.db")
	path := filepath.Join(t.TempDir(), "epub2txt.yaml")
	content := `roles:
  active: [cover, contents, main, afterword, copyright]
  cover_titles: [表紙, カバー]
gaiji:
  placeholder: 〓
catalog:
  path: ${TEST_CATALOG}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Catalog.Path != "/tmp/catalog.db" {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
	if cfg.Gaiji.PlaceholderRune() != '〓' || len(cfg.Gaiji.Classes) != 2 {
		t.Errorf("Gaiji = %+v", cfg.Gaiji)
	}
	if len(cfg.Roles.Active) != 5 || !slices.Equal(cfg.Roles.CoverTitles, []string{"表紙", "カバー"}) {
		t.Errorf("Roles = %+v", cfg.Roles)
	}

	if err := os.WriteFile(path, []byte("roles:\n  active: [nope]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("Load() of invalid file error = %v", err)
	}
}
