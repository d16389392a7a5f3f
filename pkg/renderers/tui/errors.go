package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrUnknownTheme is returned when a theme name is not registered.
	ErrUnknownTheme = errors.New("tui: unknown theme")
)
