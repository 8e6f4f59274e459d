package gocheck

import (
	"go/ast"
	"go/token"

	"fortio.org/safecast"

	"typedsql/internal/checker"
)

// node adapts an ast.Node to checker.Node. Offsets are relative to the
// token.File the node was parsed from.
type node struct {
	n    ast.Node
	unit *unit
}

func (u *unit) wrap(n ast.Node) *node { return &node{n: n, unit: u} }

func (n *node) Start() uint32 { return n.unit.offset(n.n.Pos()) }
func (n *node) End() uint32   { return n.unit.offset(n.n.End()) }

// Children lists the direct children of the node. Comments are skipped:
// a directive comment must never bind as a node.
func (n *node) Children() []checker.Node {
	var out []checker.Node
	ast.Inspect(n.n, func(c ast.Node) bool {
		if c == n.n {
			return true
		}
		switch c.(type) {
		case nil, *ast.CommentGroup, *ast.Comment:
			return false
		}
		if c.Pos().IsValid() {
			out = append(out, n.unit.wrap(c))
		}
		return false
	})
	return out
}

// Unwrap picks the expression a line assertion on n refers to.
func (n *node) Unwrap() checker.Node {
	if inner := unwrap(n.n); inner != nil {
		return n.unit.wrap(inner)
	}
	return nil
}

func unwrap(n ast.Node) ast.Node {
	switch n := n.(type) {
	case *ast.ExprStmt:
		return n.X
	case *ast.DeclStmt:
		return unwrap(n.Decl)
	case *ast.GenDecl:
		if (n.Tok == token.VAR || n.Tok == token.CONST) && len(n.Specs) == 1 {
			return unwrap(n.Specs[0])
		}
	case *ast.ValueSpec:
		if len(n.Names) == 1 && len(n.Values) == 1 {
			return n.Values[0]
		}
		if len(n.Names) == 1 && n.Type != nil {
			return n.Names[0]
		}
	case *ast.AssignStmt:
		if len(n.Lhs) == 1 && len(n.Rhs) == 1 {
			return n.Rhs[0]
		}
	case *ast.ParenExpr:
		return n.X
	}
	return nil
}

func (u *unit) offset(pos token.Pos) uint32 {
	if !pos.IsValid() {
		return 0
	}
	off, err := safecast.Conv[uint32](u.tok.Offset(pos))
	if err != nil {
		return 0
	}
	return off
}
