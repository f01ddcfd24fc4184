package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	path := writeFile(t, "name: ${SAMPLE_NAME}\n")

	got := sample{Count: 7}
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Name != "from-env" || got.Count != 7 {
		t.Errorf("Load() = %+v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"invalid yaml", "name: [\n", "failed to parse config file"},
		{"validation", "count: -1\n", "config validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s sample
			err := Load(writeFile(t, tt.content), &s)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %v, want %q", err, tt.wantMsg)
			}
		})
	}

	var s sample
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &s); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() of missing file error = %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	s := sample{Name: "default"}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &s)
	if err != nil || found || s.Name != "default" {
		t.Errorf("LoadOptional(missing) = %v, %v, %+v", found, err, s)
	}

	found, err = LoadOptional("", &s)
	if err != nil || found {
		t.Errorf("LoadOptional(\"\") = %v, %v", found, err)
	}

	found, err = LoadOptional(writeFile(t, "count: 3\n"), &s)
	if err != nil || !found || s.Count != 3 || s.Name != "default" {
		t.Errorf("LoadOptional() = %v, %v, %+v", found, err, s)
	}

	bad := sample{Count: -1}
	if _, err := LoadOptional("", &bad); err == nil {
		t.Error("LoadOptional() skipped validation of defaults")
	}
}
