package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"weave/internal/driver"
	"weave/internal/ui"
)

type linkOutcome struct {
	outcomes []*driver.Outcome
	err      error
}

// runLinkWithUI links paths while a Bubble Tea program renders progress.
func runLinkWithUI(ctx context.Context, title string, paths []string, opts driver.Options) ([]*driver.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan linkOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		outcomes, err := driver.LinkFiles(ctx, paths, optsCopy)
		outcomeCh <- linkOutcome{outcomes: outcomes, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, paths, events, cancel)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		cancel()
	}
	// the view may quit before the driver has sent its last event
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.outcomes, uiErr
	}
	return outcome.outcomes, outcome.err
}
