package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dam/internal/catalog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, formatError(err))
		}
		stop()
		os.Exit(1)
	}
}

// formatError renders err for the terminal. Expected conditions get a
// hint instead of the wrapped error chain.
func formatError(err error) string {
	switch {
	case errors.Is(err, catalog.ErrNotInitialized):
		return fmt.Sprintf("Error: %v\nRun 'dam init' to set up a catalog here.", err)
	case errors.Is(err, catalog.ErrBusy):
		return fmt.Sprintf("Error: %v\nWait for the other scan to finish and try again.", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
