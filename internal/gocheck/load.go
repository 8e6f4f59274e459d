package gocheck

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/tools/go/packages"

	"typedsql/internal/checker"
)

// ErrNoPackages is returned when the patterns match nothing.
var ErrNoPackages = errors.New("gocheck: no packages matched")

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports

// Load type-checks the packages matched by patterns, resolved from dir,
// including their test files. Type errors do not fail the load; they are
// served by Program.Diagnostics.
func Load(ctx context.Context, dir string, patterns ...string) (*Program, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	fset := token.NewFileSet()
	var (
		mu       sync.Mutex
		contents = make(map[string][]byte)
	)
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    loadMode,
		Tests:   true,
		Fset:    fset,
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			mu.Lock()
			contents[filepath.Clean(filename)] = src
			mu.Unlock()
			return parser.ParseFile(fset, filename, src, parser.AllErrors|parser.ParseComments)
		},
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("gocheck: load %s: %w", strings.Join(patterns, " "), err)
	}
	if len(pkgs) == 0 {
		return nil, ErrNoPackages
	}

	prog := newProgram(fset)
	for _, pkg := range pkgs {
		// The synthesized test main lives in the build cache.
		if strings.HasSuffix(pkg.ID, ".test") {
			continue
		}
		diags := packageDiagnostics(fset, pkg)
		for i, f := range pkg.Syntax {
			if i >= len(pkg.CompiledGoFiles) {
				break
			}
			path := filepath.Clean(pkg.CompiledGoFiles[i])
			// Test variants ("p [p.test]") see every file of the plain
			// package plus the test files; they win.
			if _, seen := prog.units[path]; seen && !strings.Contains(pkg.ID, "[") {
				continue
			}
			tok := fset.File(f.FileStart)
			if tok == nil {
				continue
			}
			prog.add(&unit{
				path:  path,
				tok:   tok,
				file:  f,
				info:  pkg.TypesInfo,
				pkg:   pkg.Types,
				diags: diags,
			}, contents[path])
		}
	}
	return prog, nil
}

func packageDiagnostics(fset *token.FileSet, pkg *packages.Package) *[]checker.Diagnostic {
	var out []checker.Diagnostic
	for _, te := range pkg.TypeErrors {
		out = append(out, typeDiagnostic(te))
	}
	for _, e := range pkg.Errors {
		if e.Kind == packages.TypeError {
			continue
		}
		out = append(out, positionDiagnostic(fset, e.Pos, e.Msg))
	}
	return &out
}

func typeDiagnostic(te types.Error) checker.Diagnostic {
	pos := te.Fset.Position(te.Pos)
	return checker.Diagnostic{File: cleanName(pos.Filename), Start: pos.Offset, Length: 1, Message: te.Msg}
}

// positionDiagnostic resolves a "file:line:col" position string.
func positionDiagnostic(fset *token.FileSet, pos, msg string) checker.Diagnostic {
	name, line, col := splitPos(pos)
	d := checker.Diagnostic{File: cleanName(name), Message: msg}
	if d.File == "" || line == 0 {
		return d
	}
	fset.Iterate(func(f *token.File) bool {
		if filepath.Clean(f.Name()) != d.File {
			return true
		}
		if line <= f.LineCount() {
			d.Start = f.Offset(f.LineStart(line)) + max(col-1, 0)
		}
		return false
	})
	return d
}

func splitPos(pos string) (name string, line, col int) {
	name = pos
	for range 2 {
		i := strings.LastIndexByte(name, ':')
		if i < 0 {
			break
		}
		n, err := strconv.Atoi(name[i+1:])
		if err != nil {
			break
		}
		col, line = line, n
		name = name[:i]
	}
	if name == "-" {
		name = ""
	}
	return name, line, col
}

func cleanName(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Clean(name)
}

// FromSources type-checks files (path to content) as one package without
// touching the file system. Imports resolve against the standard library
// sources.
func FromSources(files map[string][]byte) (*Program, error) {
	if len(files) == 0 {
		return nil, ErrNoPackages
	}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fset := token.NewFileSet()
	var (
		diags  []checker.Diagnostic
		parsed []*ast.File
		origin = make(map[*ast.File]string)
	)
	for _, p := range paths {
		f, err := parser.ParseFile(fset, p, files[p], parser.AllErrors|parser.ParseComments)
		var list scanner.ErrorList
		switch {
		case errors.As(err, &list):
			for _, e := range list {
				diags = append(diags, checker.Diagnostic{File: cleanName(e.Pos.Filename), Start: e.Pos.Offset, Length: 1, Message: e.Msg})
			}
		case err != nil:
			return nil, fmt.Errorf("gocheck: parse %s: %w", p, err)
		}
		if f != nil {
			parsed = append(parsed, f)
			origin[f] = p
		}
	}

	info := &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
	}
	conf := types.Config{
		Importer: importer.ForCompiler(fset, "source", nil),
		Error: func(err error) {
			var te types.Error
			if errors.As(err, &te) {
				diags = append(diags, typeDiagnostic(te))
			}
		},
	}
	name := "main"
	if len(parsed) > 0 && parsed[0].Name != nil && parsed[0].Name.Name != "" {
		name = parsed[0].Name.Name
	}
	// Errors are collected through conf.Error.
	pkg, _ := conf.Check(name, fset, parsed, info)

	prog := newProgram(fset)
	for _, f := range parsed {
		// A file whose package clause failed to parse has no position
		// information and stays outside the program.
		tok := fset.File(f.FileStart)
		if tok == nil {
			continue
		}
		prog.add(&unit{
			path:  filepath.Clean(origin[f]),
			tok:   tok,
			file:  f,
			info:  info,
			pkg:   pkg,
			diags: &diags,
		}, files[origin[f]])
	}
	return prog, nil
}
