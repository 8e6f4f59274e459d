package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"typedsql/internal/config"
)

const configFileHint = config.FileName

// loadConfig reads --config, or the file found above dir, and applies the
// command-line overrides on top.
func loadConfig(cmd *cobra.Command, dir string) (config.Config, error) {
	root := cmd.Root()
	path, err := root.PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}

	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.Discover(dir)
	}
	if err != nil {
		return config.Config{}, err
	}

	if f := root.PersistentFlags().Lookup("color"); f != nil && f.Changed {
		cfg.Output.Color = f.Value.String()
	}
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		cfg.Output.Format = f.Value.String()
	}
	if f := cmd.Flags().Lookup("jobs"); f != nil && f.Changed {
		if cfg.Run.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return config.Config{}, err
		}
	}
	if f := cmd.Flags().Lookup("no-snapshot-fix"); f != nil && f.Changed {
		if cfg.Expect.DisableSnapshotFix, err = cmd.Flags().GetBool("no-snapshot-fix"); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// useColor resolves auto|on|off against the output file.
func useColor(mode string, out *os.File) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	}
	return out != nil && isTerminal(out) && os.Getenv("NO_COLOR") == ""
}
