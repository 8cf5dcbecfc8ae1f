// Package flagvalue provides flag.Value implementations
// shared by extractview's command line.
package flagvalue

import "flag"

// Getter constrains PT to be a pointer to T
// that can receive a flag argument.
//
// It lets [List] build new elements of T in place.
type Getter[T any] interface {
	*T
	flag.Getter
}
