package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"typedsql/internal/directive"
	"typedsql/internal/driver"
)

var listCmd = &cobra.Command{
	Use:   "list [flags] [paths]",
	Short: "List the assertion directives found in Go files",
	Long: `Scan Go files (default: the current directory, recursively) and print
every assertion directive with the line it targets. No type checking is done.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringSlice("kind", nil, "only list these kinds (ExpectType|ExpectError|ExpectTypeSnapshot|^?)")
	listCmd.Flags().Int("jobs", 0, "max files scanned in parallel (0=auto)")
}

func runList(cmd *cobra.Command, args []string) error {
	kinds, err := cmd.Flags().GetStringSlice("kind")
	if err != nil {
		return err
	}
	filter, err := parseKinds(kinds)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	registry, loadErrs, err := driver.CollectDirectives(cmd.Context(), driver.ListOptions{Paths: paths, Jobs: jobs})
	if err != nil {
		return err
	}
	failed := make([]string, 0, len(loadErrs))
	for path := range loadErrs {
		failed = append(failed, path)
	}
	sort.Strings(failed)
	for _, path := range failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, loadErrs[path])
	}

	lister := directive.NewLister(registry, directive.ListConfig{
		Filter:  filter,
		Output:  cmd.OutOrStdout(),
		BaseDir: dir,
	})
	res := lister.List()
	if len(failed) > 0 || res.Malformed > 0 {
		return errAssertionsFailed
	}
	return nil
}

// parseKinds accepts kind names with or without the leading `$`.
func parseKinds(names []string) ([]directive.Kind, error) {
	var out []directive.Kind
	for _, n := range names {
		switch strings.TrimPrefix(n, "$") {
		case "ExpectType":
			out = append(out, directive.KindExpectType)
		case "ExpectError":
			out = append(out, directive.KindExpectError)
		case "ExpectTypeSnapshot":
			out = append(out, directive.KindExpectTypeSnapshot)
		case "^?":
			out = append(out, directive.KindPointAt)
		default:
			return nil, fmt.Errorf("unknown directive kind %q", n)
		}
	}
	return out, nil
}
