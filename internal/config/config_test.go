package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	want := writeConfig(t, root, "")

	got, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestDiscoverWithoutFile(t *testing.T) {
	// The temp dir has no config, but a parent of it might on a dev box.
	dir := t.TempDir()
	cfg, ok, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		if diff := cmp.Diff(Default(), cfg); diff != "" {
			t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[expect]
disable_snapshot_fix = true
ignore_diagnostics = ["^unused", "shadow"]

[output]
format = "json"

[run]
jobs = 4
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		Path: path,
		Expect: ExpectConfig{
			DisableSnapshotFix: true,
			IgnoreDiagnostics:  []string{"^unused", "shadow"},
		},
		Output: OutputConfig{Format: "json", Color: "auto"},
		Run:    RunConfig{Jobs: 4},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	rx, err := cfg.IgnorePatterns()
	if err != nil || len(rx) != 2 || !rx[0].MatchString("unused x") {
		t.Fatalf("IgnorePatterns: %v %v", rx, err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad toml", "[expect\n", "failed to parse TOML"},
		{"unknown key", "[expect]\nfix = true\n", "unknown keys: expect.fix"},
		{"bad format", "[output]\nformat = \"sarif\"\n", "[output].format"},
		{"empty format", "[output]\nformat = \"\"\n", "[output].format is empty"},
		{"bad color", "[output]\ncolor = \"always\"\n", "[output].color"},
		{"negative jobs", "[run]\njobs = -1\n", "[run].jobs"},
		{"bad pattern", "[expect]\nignore_diagnostics = [\"(\"]\n", "ignore_diagnostics"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("want error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
