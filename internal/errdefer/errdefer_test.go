package errdefer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClose(t *testing.T) {
	t.Parallel()

	t.Run("no errors", func(t *testing.T) {
		t.Parallel()

		var err error
		Close(&err, stubCloser{})
		assert.NoError(t, err)
	})

	t.Run("close fails", func(t *testing.T) {
		t.Parallel()

		give := errors.New("disk full")

		var err error
		Close(&err, stubCloser{err: give})
		assert.ErrorIs(t, err, give)
	})

	t.Run("both fail", func(t *testing.T) {
		t.Parallel()

		first := errors.New("write failed")
		second := errors.New("close failed")

		err := first
		Close(&err, stubCloser{err: second})
		assert.ErrorIs(t, err, first)
		assert.ErrorIs(t, err, second)
	})

	t.Run("keeps the original error untouched", func(t *testing.T) {
		t.Parallel()

		first := errors.New("write failed")

		err := first
		Close(&err, stubCloser{})
		assert.Same(t, first, err)
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	var err error
	Run(&err, func() error { return nil })
	assert.NoError(t, err)

	give := errors.New("flush failed")
	Run(&err, func() error { return give })
	assert.ErrorIs(t, err, give)
}

type stubCloser struct {
	err error
}

func (s stubCloser) Close() error {
	return s.err
}
