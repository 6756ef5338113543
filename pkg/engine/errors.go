package engine

import "errors"

var (
	// ErrUnmounted is returned by bindings whose field has unmounted since the
	// binding was created. The write is dropped.
	ErrUnmounted = errors.New("engine: field is not mounted")
	// ErrClosed is returned by every operation on a closed form.
	ErrClosed = errors.New("engine: form is closed")
	// ErrUnknownField is returned when an id does not name a mounted field.
	ErrUnknownField = errors.New("engine: unknown field")
)
