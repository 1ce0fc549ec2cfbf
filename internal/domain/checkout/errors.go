package checkout

import "errors"

var (
	// ErrCancelled is returned by Wait when the attempt was stopped with Cancel.
	ErrCancelled = errors.New("checkout cancelled")

	// ErrNotStarted is returned by Wait when no attempt was ever started.
	ErrNotStarted = errors.New("checkout not started")
)
