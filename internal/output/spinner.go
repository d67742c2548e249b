package output

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh/spinner"
)

// SpinnerOption configures a spinner.
type SpinnerOption func(*spinnerConfig)

type spinnerConfig struct {
	title       string
	interactive func() bool
}

// WithTitle sets the spinner title.
func WithTitle(title string) SpinnerOption {
	return func(c *spinnerConfig) {
		c.title = title
	}
}

// withInteractive overrides terminal detection.
func withInteractive(fn func() bool) SpinnerOption {
	return func(c *spinnerConfig) {
		c.interactive = fn
	}
}

// RunWithSpinner executes an action behind a spinner when stdout is a
// terminal, and directly otherwise. The action always runs to completion
// before RunWithSpinner returns; its error is returned unchanged.
func RunWithSpinner(ctx context.Context, action func(context.Context) error, opts ...SpinnerOption) error {
	cfg := &spinnerConfig{
		title:       "Working...",
		interactive: IsTTY,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if !cfg.interactive() {
		return action(ctx)
	}

	var actionErr error
	spinnerErr := spinner.New().
		Title(cfg.title).
		Context(ctx).
		Action(func() {
			actionErr = action(ctx)
		}).
		Run()

	if actionErr != nil {
		return actionErr
	}
	if spinnerErr != nil {
		return fmt.Errorf("spinner error: %w", spinnerErr)
	}
	return nil
}
