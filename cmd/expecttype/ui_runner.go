package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"typedsql/internal/driver"
	"typedsql/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// shouldUseTUI decides on the progress view. It draws on stderr so the
// report on stdout stays clean.
func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stderr) && isTerminal(os.Stdout)
	}
}

type checkOutcome struct {
	result *driver.CheckResult
	err    error
}

func runCheckWithUI(ctx context.Context, title string, opts driver.CheckOptions) (*driver.CheckResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		withSink := opts
		withSink.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Check(ctx, withSink)
		outcomeCh <- checkOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithInput(nil))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep draining so the checker never blocks on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
