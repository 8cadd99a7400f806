// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Valid(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "omm.toml")
	content := `
log_level = "debug"

[library]
roots = ["` + tmp + `"]
`
	os.WriteFile(cfgPath, []byte(content), 0644)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
	if len(cfg.Library.Roots) != 1 || cfg.Library.Roots[0] != tmp {
		t.Errorf("expected roots [%s], got %v", tmp, cfg.Library.Roots)
	}
}

func TestLoad_MissingEnvVar(t *testing.T) {
	os.Unsetenv("OMM_TEST_MISSING_KEY")
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "omm.toml")
	content := `
[library]
roots = ["` + tmp + `"]

[database]
path = "${OMM_TEST_MISSING_KEY}/omm.db"
`
	os.WriteFile(cfgPath, []byte(content), 0644)

	_, err := Load(cfgPath)
	if err == nil {
		t.Fatal("expected error for missing env var")
	}
	if !strings.Contains(err.Error(), "OMM_TEST_MISSING_KEY") {
		t.Errorf("expected OMM_TEST_MISSING_KEY in error, got %v", err)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "omm.toml")
	content := `
[library]
roots = ["` + tmp + `"]
scan_threads = -2
`
	os.WriteFile(cfgPath, []byte(content), 0644)

	_, err := Load(cfgPath)
	if err == nil {
		t.Fatal("expected error for negative scan_threads")
	}
	if !strings.Contains(err.Error(), "library.scan_threads") {
		t.Errorf("expected library.scan_threads in error, got %v", err)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "omm.toml")
	content := `
[library]
roots = ["` + tmp + `"]
`
	os.WriteFile(cfgPath, []byte(content), 0644)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.Database.Path != "./data/omm.db" {
		t.Errorf("expected default database path, got %s", cfg.Database.Path)
	}
	if cfg.Encoding.CQ != 22 {
		t.Errorf("expected default cq 22, got %d", cfg.Encoding.CQ)
	}
	if cfg.Standards.BitrateMin1080p != 2000 {
		t.Errorf("expected default 1080p min 2000, got %d", cfg.Standards.BitrateMin1080p)
	}
}

func TestLoadWithoutValidation(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "omm.toml")
	content := `
[library]
scan_threads = -2
`
	os.WriteFile(cfgPath, []byte(content), 0644)

	cfg, err := LoadWithoutValidation(cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Library.ScanThreads != -2 {
		t.Errorf("expected scan_threads -2, got %d", cfg.Library.ScanThreads)
	}
}

func TestLoad_EnvVarDefault(t *testing.T) {
	os.Unsetenv("OMM_TEST_OPTIONAL_VAR")
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "omm.toml")
	content := `
log_level = "${OMM_TEST_OPTIONAL_VAR:-warn}"

[library]
roots = ["` + tmp + `"]
`
	os.WriteFile(cfgPath, []byte(content), 0644)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.LogLevel)
	}
}
