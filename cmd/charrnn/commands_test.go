package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"
)

// runCommand runs cmd with exit handling disabled so cli.Exit errors come
// back to the test instead of ending the process. Commands bind package-level
// flag destinations, so callers must not run in parallel.
func runCommand(t *testing.T, cmd *cli.Command, args ...string) error {
	t.Helper()
	cmd.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	return cmd.Run(context.Background(), append([]string{cmd.Name}, args...))
}

func TestServeRejectsBadDefaultsBeforeLoading(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.safetensors")
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"zero temperature", []string{"--temperature=0"}, "temperature must be positive"},
		{"negative temperature", []string{"--temperature=-0.5"}, "temperature must be positive"},
		{"negative steps", []string{"--steps=-1"}, "steps must not be negative"},
		{"negative max steps", []string{"--max-steps=-1"}, "max steps must not be negative"},
		{"negative max prompt", []string{"--max-prompt=-1"}, "max prompt runes must not be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := runCommand(t, serveCmd(), append([]string{"--model", missing}, tc.args...)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %q, want it to mention %q", err, tc.want)
			}
			if strings.Contains(err.Error(), "load model") {
				t.Fatalf("defaults should be rejected before the model loads: %v", err)
			}
		})
	}
}

func TestFetchRejectsNegativeHead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte("First Citizen:\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := runCommand(t, fetchCmd(), "--corpus", path, "--head=-1"); err == nil || !strings.Contains(err.Error(), "--head") {
		t.Fatalf("got %v, want a --head error", err)
	}
	if err := runCommand(t, fetchCmd(), "--corpus", path, "--head=1000"); err != nil {
		t.Fatalf("head past the end: %v", err)
	}
}
