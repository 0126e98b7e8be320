package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
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

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("FOLIO_TEST_NAME", "blog")
	path := writeFile(t, "name: ${FOLIO_TEST_NAME}\nport: 9000\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "blog" || s.Port != 9000 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	path := writeFile(t, "name: blog\nport: 0\n")
	var s sample
	err := Load(path, &s)
	if err == nil || !strings.Contains(err.Error(), "port must be positive") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeFile(t, "name: [unclosed\n")
	var s sample
	if err := Load(path, &s); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	s := sample{Port: 8080}
	if err := LoadOptional(missing, &s); err != nil {
		t.Fatalf("missing file should keep defaults: %v", err)
	}
	if s.Port != 8080 {
		t.Errorf("defaults changed: %+v", s)
	}

	invalid := sample{}
	if err := LoadOptional(missing, &invalid); err == nil {
		t.Error("defaults must still be validated")
	}

	path := writeFile(t, "port: 7000\n")
	if err := LoadOptional(path, &s); err != nil || s.Port != 7000 {
		t.Errorf("existing file not loaded: %+v, %v", s, err)
	}
}
