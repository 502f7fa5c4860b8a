package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (c *testConfig) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("CRAVETOWN_TEST_NAME", "from-env")
	p := writeFile(t, "name: ${CRAVETOWN_TEST_NAME}\nport: 9000\n")

	cfg := testConfig{}
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-env" || cfg.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	p := writeFile(t, "port: 0\n")
	cfg := testConfig{}
	err := Load(p, &cfg)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoadOrDefault_MissingFileKeepsDefaults(t *testing.T) {
	cfg := testConfig{Name: "default", Port: 1420}
	found, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if found {
		t.Error("found = true for missing file")
	}
	if cfg.Name != "default" || cfg.Port != 1420 {
		t.Errorf("defaults changed: %+v", cfg)
	}
}

func TestLoadOrDefault_OverridesDefaults(t *testing.T) {
	p := writeFile(t, "port: 8081\n")
	cfg := testConfig{Name: "default", Port: 1420}
	found, err := LoadOrDefault(p, &cfg)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if cfg.Name != "default" || cfg.Port != 8081 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadOrDefault_InvalidDefaults(t *testing.T) {
	cfg := testConfig{}
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Error("expected validation error for invalid defaults")
	}
}
