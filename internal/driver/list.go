package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"typedsql/internal/directive"
	"typedsql/internal/source"
)

// ListOptions configures CollectDirectives.
type ListOptions struct {
	// Paths are files or directories; directories are walked recursively.
	Paths []string
	Jobs  int
}

// CollectDirectives scans every Go file under opts.Paths and returns the
// directives found. Load failures are returned per path.
func CollectDirectives(ctx context.Context, opts ListOptions) (*directive.Registry, map[string]error, error) {
	files, err := listGoFiles(opts.Paths)
	if err != nil {
		return nil, nil, err
	}
	registry := directive.NewRegistry()
	if len(files) == 0 {
		return registry, nil, nil
	}

	// Load sequentially; FileSet is not safe for concurrent use.
	fileSet := source.NewFileSet()
	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error)
	for _, path := range files {
		id, err := fileSet.Load(path)
		if err != nil {
			loadErrors[path] = err
			continue
		}
		fileIDs[path] = id
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for _, path := range files {
		id, ok := fileIDs[path]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f := fileSet.Get(id)
			registry.CollectFromFile(f.Path, f.Content, f.LineStarts())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, loadErrors, err
	}
	return registry, loadErrors, nil
}

// listGoFiles expands paths into a sorted list of .go files. Directories
// named testdata, vendor or starting with "." or "_" are skipped, as the
// go command does.
func listGoFiles(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, root := range paths {
		root = strings.TrimSuffix(root, "/...")
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ".go") {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func skipDir(name string) bool {
	return name == "testdata" || name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
