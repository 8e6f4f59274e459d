package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"typedsql/internal/directive"
	"typedsql/internal/driver"
)

func newTestRoot(sub *cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "expecttype", SilenceUsage: true, SilenceErrors: true}
	registerGlobalFlags(root)
	root.AddCommand(sub)
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestParseKinds(t *testing.T) {
	got, err := parseKinds([]string{"$ExpectType", "ExpectError", "^?"})
	if err != nil {
		t.Fatal(err)
	}
	want := []directive.Kind{directive.KindExpectType, directive.KindExpectError, directive.KindPointAt}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
	if _, err := parseKinds([]string{"ExpectNothing"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestUseColor(t *testing.T) {
	if !useColor("on", nil) {
		t.Error("on must force colour")
	}
	if useColor("off", os.Stdout) {
		t.Error("off must disable colour")
	}
	if useColor("auto", nil) {
		t.Error("auto without a file must not colour")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "expecttype.toml"), `
[expect]
ignore_diagnostics = ["^unused"]

[output]
format = "short"
color = "off"

[run]
jobs = 2
`)
	sub := &cobra.Command{Use: "check"}
	sub.Flags().String("format", "", "")
	sub.Flags().Int("jobs", 0, "")
	sub.Flags().Bool("no-snapshot-fix", false, "")
	root := newTestRoot(sub)

	cfg, err := loadConfig(sub, filepath.Join(dir, "pkg"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Format != "short" || cfg.Run.Jobs != 2 {
		t.Fatalf("config not discovered: %+v", cfg)
	}

	if err := root.PersistentFlags().Set("color", "on"); err != nil {
		t.Fatal(err)
	}
	if err := sub.Flags().Set("format", "json"); err != nil {
		t.Fatal(err)
	}
	if err := sub.Flags().Set("no-snapshot-fix", "true"); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(sub, filepath.Join(dir, "pkg"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Format != "json" || cfg.Output.Color != "on" || !cfg.Expect.DisableSnapshotFix {
		t.Errorf("flags did not override the file: %+v", cfg)
	}
	if cfg.Run.Jobs != 2 {
		t.Errorf("jobs = %d, want the file value 2", cfg.Run.Jobs)
	}

	if err := sub.Flags().Set("format", "xml"); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(sub, dir); err == nil {
		t.Error("expected error for an invalid format override")
	}
}

func TestListCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package p\n\nvar x = 1 // $ExpectType int\n//  ^? var x int\n")
	writeFile(t, filepath.Join(dir, "sub", "b.go"), "package sub\n\n// $ExpectError\nvar _ int = \"s\"\n")
	t.Chdir(dir)

	var out bytes.Buffer
	root := newTestRoot(listCmd)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"list", "--kind", "ExpectType,ExpectError"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("list: %v\n%s", err, out.String())
	}
	for _, want := range []string{"a.go:3: $ExpectType int", "sub/b.go:4: $ExpectError", "2 total"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "^? var x int") {
		t.Errorf("kind filter ignored:\n%s", out.String())
	}
}

func TestListCommandMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package p\n\nvar x = 1 // $ExpectType\n")
	t.Chdir(dir)

	var out bytes.Buffer
	root := newTestRoot(listCmd)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"list"})
	err := root.ExecuteContext(context.Background())
	if !errors.Is(err, errAssertionsFailed) {
		t.Fatalf("err = %v, want errAssertionsFailed", err)
	}
	if !strings.Contains(out.String(), "(missing argument)") {
		t.Errorf("malformed directive not flagged:\n%s", out.String())
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &driver.CheckResult{Files: make([]driver.FileResult, 3)})
	if got := buf.String(); got != "ok: 3 file(s) checked\n" {
		t.Errorf("summary = %q", got)
	}
}

func TestPrintApplyResultEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := printApplyResult(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No repairs to apply.\n" {
		t.Errorf("got %q", buf.String())
	}
}
