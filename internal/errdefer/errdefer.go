// Package errdefer runs cleanup that must be deferred until the end of a
// function, but whose errors should still reach the function's caller.
package errdefer

import (
	"errors"
	"io"
)

// Close calls Close on the given Closer,
// and joins any error it returns into *err.
//
// Use it inside a defer statement with a named return.
func Close(err *error, closer io.Closer) {
	if cerr := closer.Close(); cerr != nil {
		*err = errors.Join(*err, cerr)
	}
}

// Run calls fn and joins any error it returns into *err.
//
// Use it inside a defer statement with a named return
// for cleanup that isn't an io.Closer, e.g. flushing a writer.
func Run(err *error, fn func() error) {
	if ferr := fn(); ferr != nil {
		*err = errors.Join(*err, ferr)
	}
}
