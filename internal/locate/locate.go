// Package locate maps lines and offsets back to syntax nodes.
package locate

import (
	"typedsql/internal/checker"
	"typedsql/internal/source"
)

// Binding is the node an assertion on Line resolved to.
type Binding struct {
	Line int
	// Node is the first node starting on Line; failures are reported over
	// its range.
	Node checker.Node
	// Target is Node after unwrapping; its type is what the assertion checks.
	Target checker.Node
}

// BindLines walks the tree under root depth-first, parents before children,
// and binds every wanted line to the first node that starts on it. Lines
// without such a node are absent from the result.
func BindLines(root checker.Node, file *source.File, lines []int) map[int]Binding {
	out := make(map[int]Binding, len(lines))
	if root == nil || len(lines) == 0 {
		return out
	}
	pending := make(map[int]struct{}, len(lines))
	for _, l := range lines {
		pending[l] = struct{}{}
	}

	var walk func(n checker.Node) bool
	walk = func(n checker.Node) bool {
		line := file.LineOf(n.Start())
		if _, ok := pending[line]; ok {
			delete(pending, line)
			out[line] = Binding{Line: line, Node: n, Target: Unwrap(n)}
			if len(pending) == 0 {
				return false
			}
		}
		for _, c := range n.Children() {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	for _, c := range root.Children() {
		if !walk(c) {
			break
		}
	}
	return out
}

// Unwrap follows Node.Unwrap until it yields nothing.
func Unwrap(n checker.Node) checker.Node {
	for n != nil {
		inner := n.Unwrap()
		if inner == nil {
			return n
		}
		n = inner
	}
	return n
}

// NodeAt returns the deepest node under root whose inclusive range
// [Start, End] contains pos, or nil. When siblings touch at pos the later
// one wins.
func NodeAt(root checker.Node, pos uint32) checker.Node {
	if root == nil {
		return nil
	}
	var candidate checker.Node
	var walk func(n checker.Node)
	walk = func(n checker.Node) {
		for _, c := range n.Children() {
			if c.Start() <= pos && pos <= c.End() {
				candidate = c
				walk(c)
			}
		}
	}
	walk(root)
	return candidate
}
