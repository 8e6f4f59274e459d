package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"typedsql/internal/diag"
	"typedsql/internal/diagfmt"
	"typedsql/internal/driver"
	"typedsql/internal/fix"
	"typedsql/internal/watch"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [packages]",
	Short: "Check type assertions in Go packages",
	Long: `Load the named packages (default ".") and verify every $ExpectType,
$ExpectError, $ExpectTypeSnapshot and ^? assertion. Exits with status 1
when any assertion fails.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "", "output format (pretty|short|json); overrides the config file")
	checkCmd.Flags().Int("jobs", 0, "max files checked in parallel (0=auto)")
	checkCmd.Flags().Bool("fix", false, "apply every available repair, then report what is left")
	checkCmd.Flags().String("fix-id", "", "apply only the repair with this identifier")
	checkCmd.Flags().Bool("no-snapshot-fix", false, "never write snapshot files")
	checkCmd.Flags().Bool("suggest", false, "show available repairs in pretty output")
	checkCmd.Flags().Bool("preview", false, "show the edit a repair would make")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().String("ui", "off", "progress view on stderr (auto|on|off)")
	checkCmd.Flags().Bool("watch", false, "re-check whenever a Go or snapshot file changes")
}

// checkRun holds everything one pass of `check` needs.
type checkRun struct {
	opts     driver.CheckOptions
	format   diagfmt.Format
	color    bool
	pathMode diagfmt.PathMode
	applyAll bool
	fixID    string
	suggest  bool
	preview  bool
	tui      bool
}

func runCheck(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		return err
	}
	format, err := diagfmt.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	ignore, err := cfg.IgnorePatterns()
	if err != nil {
		return err
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	applyAll, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return err
	}
	fixID, err := cmd.Flags().GetString("fix-id")
	if err != nil {
		return err
	}
	if applyAll && fixID != "" {
		return fmt.Errorf("--fix and --fix-id are mutually exclusive")
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return err
	}
	preview, err := cmd.Flags().GetBool("preview")
	if err != nil {
		return err
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return err
	}

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	watchMode, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	run := checkRun{
		opts: driver.CheckOptions{
			Dir:                dir,
			Patterns:           args,
			Jobs:               cfg.Run.Jobs,
			MaxDiagnostics:     maxDiagnostics,
			DisableSnapshotFix: cfg.Expect.DisableSnapshotFix,
			IgnoreDiagnostics:  ignore,
			EnableTimings:      showTimings,
		},
		format:   format,
		color:    useColor(cfg.Output.Color, os.Stdout),
		pathMode: diagfmt.PathModeAuto,
		applyAll: applyAll,
		fixID:    fixID,
		suggest:  suggest,
		preview:  preview,
		// the progress view would fight the watch loop for the terminal
		tui: shouldUseTUI(mode) && !watchMode,
	}
	if fullPath {
		run.pathMode = diagfmt.PathModeAbsolute
	}

	res, err := run.once(cmd)
	if err != nil {
		return err
	}
	if watchMode {
		return watchAndCheck(cmd, run, res)
	}
	if res.Failed() {
		return errAssertionsFailed
	}
	return nil
}

// once checks, optionally repairs, and prints the report.
func (r checkRun) once(cmd *cobra.Command) (*driver.CheckResult, error) {
	ctx := cmd.Context()
	var (
		res *driver.CheckResult
		err error
	)
	if r.tui {
		res, err = runCheckWithUI(ctx, "expecttype check", r.opts)
	} else {
		res, err = driver.Check(ctx, r.opts)
	}
	if err != nil {
		dumpTraceRings(cmd)
		return nil, err
	}

	if r.applyAll || r.fixID != "" {
		applyOpts := fix.ApplyOptions{Mode: fix.ApplyModeAll}
		if r.fixID != "" {
			applyOpts = fix.ApplyOptions{Mode: fix.ApplyModeID, TargetID: r.fixID}
		}
		applied, err := driver.ApplyFixes(ctx, res, applyOpts)
		if err != nil {
			dumpTraceRings(cmd)
			return nil, fmt.Errorf("fix: %w", err)
		}
		if err := printApplyResult(cmd.ErrOrStderr(), applied); err != nil {
			return nil, err
		}
		if applied != nil && len(applied.Applied) > 0 {
			// re-check so the report shows what the repairs left behind
			if res, err = driver.Check(ctx, r.opts); err != nil {
				return nil, err
			}
		}
	}

	if err := r.print(cmd, res); err != nil {
		return nil, err
	}
	if res.Timer != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), res.Timer.Summary())
	}
	return res, nil
}

func (r checkRun) print(cmd *cobra.Command, res *driver.CheckResult) error {
	out := cmd.OutOrStdout()
	switch r.format {
	case diagfmt.FormatJSON:
		return diagfmt.JSON(out, res.Bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         r.pathMode,
			IncludeNotes:     true,
			IncludeFixes:     true,
			IncludePreviews:  r.preview,
		})
	case diagfmt.FormatShort:
		_, err := io.WriteString(out, diag.FormatShortDiagnostics(res.Bag.Items(), res.FileSet, true))
		return err
	}
	res.Bag.Sort()
	diagfmt.Pretty(out, res.Bag, res.FileSet, diagfmt.PrettyOpts{
		Color:       r.color,
		Context:     1,
		PathMode:    r.pathMode,
		ShowNotes:   true,
		ShowFixes:   r.suggest || r.preview,
		ShowPreview: r.preview,
	})
	printSummary(cmd.ErrOrStderr(), res)
	return nil
}

// watchAndCheck re-runs the check after every relevant change until the
// process is interrupted. Load errors are reported and watching goes on.
func watchAndCheck(cmd *cobra.Command, run checkRun, first *driver.CheckResult) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	paths := make([]string, len(first.Files))
	for i, f := range first.Files {
		paths[i] = f.Path
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %d file(s), Ctrl-C to stop\n", len(paths))

	return watch.Run(ctx, watch.Options{
		Dirs: watch.Dirs(paths),
		OnChange: func(_ context.Context, changed []string) error {
			fmt.Fprintf(cmd.ErrOrStderr(), "\n%d file(s) changed, re-checking\n", len(changed))
			if _, err := run.once(cmd); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "expecttype: %v\n", err)
			}
			return nil
		},
	})
}

// printSummary reports the failure count and how many were not printed.
func printSummary(w io.Writer, res *driver.CheckResult) {
	files := 0
	for _, f := range res.Files {
		if len(f.Failures) > 0 {
			files++
		}
	}
	total := len(res.Diagnostics)
	if total == 0 {
		fmt.Fprintf(w, "ok: %d file(s) checked\n", len(res.Files))
		return
	}
	fmt.Fprintf(w, "%d failure(s) in %d file(s)", total, files)
	if n := res.Bag.Dropped(); n > 0 {
		fmt.Fprintf(w, ", %d not shown (--max-diagnostics)", n)
	}
	fmt.Fprintln(w)
}

func printApplyResult(w io.Writer, res *fix.ApplyResult) error {
	if res == nil || len(res.Applied) == 0 && len(res.Skipped) == 0 {
		_, err := fmt.Fprintln(w, "No repairs to apply.")
		return err
	}
	if len(res.Applied) > 0 {
		if _, err := fmt.Fprintf(w, "Applied %d repair(s):\n", len(res.Applied)); err != nil {
			return err
		}
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			if _, err := fmt.Fprintf(w, "  %s [%s] %s (%d edits)\n", item.Title, item.ID, location, item.EditCount); err != nil {
				return err
			}
		}
	}
	if len(res.FileChanges) > 0 {
		if _, err := fmt.Fprintln(w, "Updated files:"); err != nil {
			return err
		}
		for _, change := range res.FileChanges {
			if _, err := fmt.Fprintf(w, "  %s (%d edits)\n", change.Path, change.EditCount); err != nil {
				return err
			}
		}
	}
	if len(res.Skipped) > 0 {
		if _, err := fmt.Fprintln(w, "Skipped repairs:"); err != nil {
			return err
		}
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if _, err := fmt.Fprintf(w, "  [%s]: %s\n", id, skip.Reason); err != nil {
				return err
			}
		}
	}
	return nil
}
