package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeDefaults(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write defaults: %v", err)
	}
	return path
}

func TestLoadToolDefaults(t *testing.T) {
	path := writeDefaults(t, `
config = "/etc/labcomm/bench.toml"
instrument = "osa"
command = "SYST:ERR?"
timeout = "10s"
discard = true
`)
	def, err := loadToolDefaults(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def.Config != "/etc/labcomm/bench.toml" || def.Instrument != "osa" {
		t.Fatalf("defaults = %+v", def)
	}
	if def.Command != "SYST:ERR?" || def.Timeout != 10*time.Second || !def.Discard {
		t.Fatalf("defaults = %+v", def)
	}
}

func TestLoadToolDefaultsKeepsBuiltins(t *testing.T) {
	path := writeDefaults(t, `instrument = "dmm"`)
	def, err := loadToolDefaults(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def.Config != "labcomm.toml" || def.Command != "*IDN?" {
		t.Fatalf("builtins not kept: %+v", def)
	}
	if def.Instrument != "dmm" {
		t.Fatalf("instrument = %q", def.Instrument)
	}
}

func TestLoadToolDefaultsBadTimeout(t *testing.T) {
	path := writeDefaults(t, `timeout = "soon"`)
	if _, err := loadToolDefaults(path); err == nil {
		t.Fatal("expected error for unparseable timeout")
	}
}
