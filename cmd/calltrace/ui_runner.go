package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"calltrace/internal/progress"
	"calltrace/internal/ui"
)

type outcome[T any] struct {
	result T
	err    error
}

// runWithUI runs work in the background and shows its progress events in a
// Bubble Tea view until work returns.
func runWithUI[T any](ctx context.Context, title string, names []string, work func(ctx context.Context, sink progress.Sink) (T, error)) (T, error) {
	events := make(chan progress.Event, 256)
	outcomeCh := make(chan outcome[T], 1)

	go func() {
		res, err := work(ctx, progress.ChannelSink{Ch: events})
		outcomeCh <- outcome[T]{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// модель могла выйти раньше (ctrl+c): дочитываем события, иначе воркер
	// встанет на полном канале
	go func() {
		for range events {
		}
	}()
	out := <-outcomeCh
	if uiErr != nil {
		return out.result, uiErr
	}
	return out.result, out.err
}
