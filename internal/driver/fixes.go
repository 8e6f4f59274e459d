package driver

import (
	"context"
	"errors"
	"fmt"

	"typedsql/internal/fix"
	"typedsql/internal/trace"
)

// ApplyFixes materialises and applies the repairs attached to res. Snapshot
// repairs write their sidecars here; `^?` repairs rewrite source files.
// A run without any applicable repair is not an error.
func ApplyFixes(ctx context.Context, res *CheckResult, opts fix.ApplyOptions) (*fix.ApplyResult, error) {
	if res == nil {
		return &fix.ApplyResult{}, nil
	}
	_, span := trace.Start(ctx, trace.ScopeDriver, "fix")
	idx := begin(res.Timer, "fix")
	out, err := fix.Apply(res.FileSet, res.Diagnostics, opts)
	if out != nil {
		end(res.Timer, idx, fmt.Sprintf("applied=%d skipped=%d", len(out.Applied), len(out.Skipped)))
		span.SetInt("applied", len(out.Applied))
	} else {
		end(res.Timer, idx, "")
	}
	if errors.Is(err, fix.ErrNoFixes) {
		span.End("no fixes")
		return out, nil
	}
	if err != nil {
		span.End(err.Error())
		return out, err
	}
	span.End("")
	return out, nil
}
