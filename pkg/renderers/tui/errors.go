package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoForm is returned by Fill when no form was supplied.
	ErrNoForm = errors.New("tui: form is nil")
)
