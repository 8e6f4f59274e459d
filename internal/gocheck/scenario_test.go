package gocheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"typedsql/internal/expect"
	"typedsql/internal/snapshot"
	"typedsql/internal/source"
)

// TestScenarios runs the assertion engine over each testdata archive. Go
// files form one package; files under the snapshot directory seed the
// sidecar store; the "want" file lists the expected failures.
func TestScenarios(t *testing.T) {
	archives, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(archives) == 0 {
		t.Fatal("no scenarios found")
	}
	for _, name := range archives {
		t.Run(strings.TrimSuffix(filepath.Base(name), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(name)
			if err != nil {
				t.Fatal(err)
			}
			sources := make(map[string][]byte)
			sidecars := make(map[string][]byte)
			var want []string
			for _, f := range ar.Files {
				switch {
				case f.Name == "want":
					want = nonEmptyLines(string(f.Data))
				case strings.HasPrefix(f.Name, snapshot.Dir+"/"):
					sidecars[filepath.Clean(f.Name)] = f.Data
				case strings.HasSuffix(f.Name, ".go"):
					sources[f.Name] = f.Data
				}
			}

			prog, err := FromSources(sources)
			if err != nil {
				t.Fatalf("FromSources: %v", err)
			}
			engine := expect.New(prog, readOnlyStore(sidecars), expect.Options{DisableSnapshotFix: true})

			fs := source.NewFileSet()
			got := []string{}
			for _, path := range prog.Files() {
				file := fs.Get(fs.AddVirtual(path, sources[path]))
				for _, f := range engine.Check(context.Background(), file) {
					got = append(got, fmt.Sprintf("%s:%d:%d %s: %s", path, f.Line, f.Column, f.Kind, f.Message()))
				}
			}
			if want == nil {
				want = []string{}
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("failures mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func readOnlyStore(files map[string][]byte) *snapshot.Store {
	return &snapshot.Store{
		ReadFile: func(name string) ([]byte, error) {
			if data, ok := files[filepath.Clean(name)]; ok {
				return data, nil
			}
			return nil, os.ErrNotExist
		},
	}
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
