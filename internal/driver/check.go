package driver

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"typedsql/internal/checker"
	"typedsql/internal/diag"
	"typedsql/internal/expect"
	"typedsql/internal/gocheck"
	"typedsql/internal/observ"
	"typedsql/internal/snapshot"
	"typedsql/internal/source"
	"typedsql/internal/trace"
)

// Program is a checked program that can enumerate its files.
type Program interface {
	checker.Program
	Files() []string
}

// CheckOptions configures Check and CheckProgram.
type CheckOptions struct {
	// Dir is the directory patterns are resolved against and the base
	// for relative paths in output.
	Dir      string
	Patterns []string
	// Jobs bounds the number of files checked at once; <= 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	// DisableSnapshotFix keeps snapshot repairs from touching the sidecars.
	DisableSnapshotFix bool
	// IgnoreDiagnostics is appended to expect.DefaultIgnore.
	IgnoreDiagnostics []*regexp.Regexp
	// Store overrides the sidecar store; nil means the file system.
	Store         *snapshot.Store
	EnableTimings bool
	// Progress receives per-file events; nil disables reporting.
	Progress ProgressSink
}

// FileResult holds the failures of one file in report order.
type FileResult struct {
	Path     string
	FileID   source.FileID
	Failures []expect.Failure
}

// CheckResult is the outcome of a check run.
type CheckResult struct {
	FileSet *source.FileSet
	Files   []FileResult
	// Diagnostics holds every failure converted for the fix engine.
	Diagnostics []*diag.Diagnostic
	// Bag holds the diagnostics to print, bounded by MaxDiagnostics.
	Bag   *diag.Bag
	Timer *observ.Timer
}

// Failed reports whether any file produced a failure.
func (r *CheckResult) Failed() bool {
	return r != nil && len(r.Diagnostics) > 0
}

// Check loads the packages named by opts.Patterns and verifies every file.
func Check(ctx context.Context, opts CheckOptions) (*CheckResult, error) {
	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	_, span := trace.Start(ctx, trace.ScopeDriver, "load")
	loadIdx := begin(timer, "load")
	emit(opts.Progress, Event{Stage: StageLoad, Status: StatusWorking})
	prog, err := gocheck.Load(ctx, opts.Dir, patterns...)
	end(timer, loadIdx, "")
	if err != nil {
		emit(opts.Progress, Event{Stage: StageLoad, Status: StatusFailed})
		span.End(err.Error())
		return nil, fmt.Errorf("load %v: %w", patterns, err)
	}
	span.SetInt("files", len(prog.Files())).End("")

	return checkProgram(ctx, prog, opts, timer)
}

// CheckProgram verifies every file of an already loaded program.
func CheckProgram(ctx context.Context, prog Program, opts CheckOptions) (*CheckResult, error) {
	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	return checkProgram(ctx, prog, opts, timer)
}

func checkProgram(ctx context.Context, prog Program, opts CheckOptions, timer *observ.Timer) (*CheckResult, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "check")

	// FileSet is not safe for concurrent use; fill it before fanning out.
	fileSet := source.NewFileSetWithBase(opts.Dir)
	paths := prog.Files()
	ids := make([]source.FileID, len(paths))
	for i, path := range paths {
		src, _ := prog.SourceFile(path)
		var content []byte
		if src != nil {
			content = src.Content
		}
		ids[i] = fileSet.Add(path, content, 0)
		emit(opts.Progress, Event{File: path, Stage: StageCheck, Status: StatusQueued})
	}
	emit(opts.Progress, Event{Stage: StageCheck, Status: StatusWorking})

	ignore := append(append([]*regexp.Regexp(nil), expect.DefaultIgnore...), opts.IgnoreDiagnostics...)
	engine := expect.New(prog, opts.Store, expect.Options{
		DisableSnapshotFix: opts.DisableSnapshotFix,
		IgnoreDiagnostics:  ignore,
	})

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Each goroutine owns results[i].
	results := make([]FileResult, len(paths))
	checkIdx := begin(timer, "check")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(min(jobs, len(paths)), 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			emit(opts.Progress, Event{File: path, Stage: StageCheck, Status: StatusWorking})
			start := time.Now()
			failures := engine.Check(gctx, fileSet.Get(ids[i]))
			results[i] = FileResult{Path: path, FileID: ids[i], Failures: failures}
			status := StatusDone
			if len(failures) > 0 {
				status = StatusFailed
			}
			emit(opts.Progress, Event{
				File:     path,
				Stage:    StageCheck,
				Status:   status,
				Failures: len(failures),
				Elapsed:  time.Since(start),
			})
			return nil
		})
	}
	err := g.Wait()
	end(timer, checkIdx, fmt.Sprintf("files=%d", len(paths)))
	if err != nil {
		span.End(err.Error())
		return nil, err
	}

	reportIdx := begin(timer, "report")
	res := &CheckResult{
		FileSet: fileSet,
		Files:   results,
		Bag:     diag.NewBag(opts.MaxDiagnostics),
		Timer:   timer,
	}
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})
	for _, fr := range results {
		for _, d := range expect.Diagnostics(fr.Failures) {
			res.Diagnostics = append(res.Diagnostics, d)
			reporter.Report(d)
		}
	}
	end(timer, reportIdx, fmt.Sprintf("diags=%d", len(res.Diagnostics)))
	span.SetInt("failures", len(res.Diagnostics)).End("")
	return res, nil
}

func begin(timer *observ.Timer, name string) int {
	if timer == nil {
		return -1
	}
	return timer.Begin(name)
}

func end(timer *observ.Timer, idx int, note string) {
	if timer == nil || idx < 0 {
		return
	}
	timer.End(idx, note)
}
