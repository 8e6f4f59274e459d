// Package gocheck is a checker.Program backed by go/types.
package gocheck

import (
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"

	"typedsql/internal/checker"
)

// unit is one parsed file together with the type information of the
// package it was checked in.
type unit struct {
	path string
	tok  *token.File
	file *ast.File
	info *types.Info
	pkg  *types.Package
	src  *checker.SourceFile
	// diags collects the findings of the whole package.
	diags *[]checker.Diagnostic
}

// Program holds every file of the loaded packages.
type Program struct {
	fset  *token.FileSet
	units map[string]*unit
}

func newProgram(fset *token.FileSet) *Program {
	return &Program{fset: fset, units: make(map[string]*unit)}
}

func (p *Program) add(u *unit, content []byte) {
	u.src = &checker.SourceFile{
		Path:      u.path,
		Content:   content,
		Root:      u.wrap(u.file),
		Generated: ast.IsGenerated(u.file),
	}
	p.units[u.path] = u
}

// Files returns the paths of every file in the program, sorted.
func (p *Program) Files() []string {
	out := make([]string, 0, len(p.units))
	for path := range p.units {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

func (p *Program) SourceFile(path string) (*checker.SourceFile, bool) {
	u, ok := p.units[filepath.Clean(path)]
	if !ok {
		return nil, false
	}
	return u.src, true
}

// Diagnostics returns the findings of f's package that belong to f, to no
// file, or to a file outside the program (go.mod, cgo output).
func (p *Program) Diagnostics(f *checker.SourceFile) []checker.Diagnostic {
	path := filepath.Clean(f.Path)
	u, ok := p.units[path]
	if !ok || u.diags == nil {
		return nil
	}
	var out []checker.Diagnostic
	for _, d := range *u.diags {
		if _, sibling := p.units[d.File]; sibling && d.File != path {
			continue
		}
		out = append(out, d)
	}
	return out
}

// TypeString renders the type of an expression, qualified relative to its
// own package.
func (p *Program) TypeString(n checker.Node) string {
	gn, ok := n.(*node)
	if !ok {
		return ""
	}
	t := typeOf(gn)
	if t == nil {
		return ""
	}
	return types.TypeString(t, types.RelativeTo(gn.unit.pkg))
}

// QuickInfo renders an identifier as its declaration (`var x int`,
// `func f() string`) and any other expression as its type.
func (p *Program) QuickInfo(n checker.Node) (string, bool) {
	gn, ok := n.(*node)
	if !ok {
		return "", false
	}
	qual := types.RelativeTo(gn.unit.pkg)
	if id, ok := gn.n.(*ast.Ident); ok {
		if obj := gn.unit.info.ObjectOf(id); obj != nil {
			return types.ObjectString(obj, qual), true
		}
	}
	if t := typeOf(gn); t != nil {
		return types.TypeString(t, qual), true
	}
	return "", false
}

func typeOf(n *node) types.Type {
	info := n.unit.info
	if info == nil {
		return nil
	}
	switch x := n.n.(type) {
	case *ast.Ident:
		if obj := info.ObjectOf(x); obj != nil {
			return obj.Type()
		}
	case ast.Expr:
		return info.TypeOf(x)
	}
	return nil
}
