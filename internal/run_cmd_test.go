package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/palletworks/pallet/internal/logger"
)

func TestMain(m *testing.M) {
	logger.UseTestMode()
	os.Exit(m.Run())
}

// setupCmdEnv isolates a command test from the machine: a scratch HOME
// so no real config or prefs load, a fake autopkg on PATH so the
// middleware chain passes, and no update check afterwards.
func setupCmdEnv(t *testing.T) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("RECIPE", "")
	t.Setenv("PALLET_NO_UPDATE_CHECK", "1")

	bin := t.TempDir()
	fake := filepath.Join(bin, "autopkg")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("failed to write fake autopkg: %v", err)
	}
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestRunCmd_FlagValidation(t *testing.T) {
	badList := filepath.Join(t.TempDir(), "recipes.json")
	if err := os.WriteFile(badList, []byte(`{"recipes": []}`), 0o644); err != nil {
		t.Fatalf("failed to write list file: %v", err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{
			name: "No recipes from any source",
			args: []string{"run"},
		},
		{
			name: "Recipe list is not a JSON array",
			args: []string{"run", "--recipe-list", badList},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCmdEnv(t)

			root := NewRootCmd()
			root.SetArgs(tt.args)
			_, err := root.ExecuteC()

			if err == nil {
				t.Fatalf("expected error, got nil")
			}

			if !strings.Contains(err.Error(), "already logged") {
				t.Errorf("expected sentinel error, got: %v", err)
			}
		})
	}
}
