package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gobasic/pkg/compiler"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gobasic.cue")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApplyOverlay(t *testing.T) {
	path := writeConfig(t, `
module: "billing"
optimize: 2
generate_on_errors: false
`)
	loader := NewLoader([]string{path})
	cfg, err := loader.Apply(compiler.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ModuleName != "billing" {
		t.Errorf("module = %q", cfg.ModuleName)
	}
	if cfg.OptimizationLevel != 2 {
		t.Errorf("optimize = %d", cfg.OptimizationLevel)
	}
	if cfg.GenerateOnErrors {
		t.Error("generate_on_errors not applied")
	}
	// Settings absent from the file keep the base value.
	if cfg.HaltOnFatalOnly != compiler.DefaultConfig().HaltOnFatalOnly {
		t.Error("untouched setting changed")
	}
}

func TestMissingFileMeansDefaults(t *testing.T) {
	loader := NewLoader([]string{filepath.Join(t.TempDir(), "absent.cue")})
	base := compiler.DefaultConfig()
	cfg, err := loader.Apply(base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg != base {
		t.Errorf("got %+v, want base %+v", cfg, base)
	}
}

func TestEarlierFileWins(t *testing.T) {
	first := writeConfig(t, `optimize: 1`)
	second := writeConfig(t, `optimize: 3`)
	loader := NewLoader([]string{first, second})
	cfg, err := loader.Apply(compiler.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OptimizationLevel != 1 {
		t.Errorf("optimize = %d, want 1", cfg.OptimizationLevel)
	}
}

func TestSchemaRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, `optimise: 2`)
	loader := NewLoader([]string{path})
	if _, err := loader.Apply(compiler.DefaultConfig()); err == nil {
		t.Error("misspelled field accepted")
	}
}

func TestSchemaRejectsOutOfRange(t *testing.T) {
	path := writeConfig(t, `optimize: 7`)
	loader := NewLoader([]string{path})
	if _, err := loader.Apply(compiler.DefaultConfig()); err == nil {
		t.Error("optimize above the legal range accepted")
	}
}

func TestAssignFirstNotFound(t *testing.T) {
	loader := NewLoader(nil)
	var s string
	if err := loader.AssignFirst("module", &s); !errors.Is(err, ErrValueNotFound) {
		t.Errorf("got %v, want ErrValueNotFound", err)
	}
}
