package state

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotExist is returned by Persister.Load when nothing has been saved yet.
	ErrNotExist = errors.New("state does not exist")
	// ErrUnavailable marks load failures of a remote backend. Read returns
	// them instead of replacing the remote document with defaults.
	ErrUnavailable = errors.New("state backend unavailable")
	// ErrNotFound is returned by document mutators when the referenced record
	// is absent.
	ErrNotFound = errors.New("not found")
	// ErrNoChange may be returned from an Update callback to skip the write.
	ErrNoChange = errors.New("no change")
)

// Persister loads and saves the encoded document. Save must replace the
// stored bytes atomically: a failed Save leaves the previous document intact.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Location() string
}

// Quarantiner is implemented by persisters that can move unparsable data
// aside before it is overwritten.
type Quarantiner interface {
	Quarantine(ctx context.Context) (string, error)
}

// IOError reports a failed write of the state document.
type IOError struct {
	Op       string
	Location string
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("state %s %s: %v", e.Op, e.Location, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsIOError reports whether err is or wraps an *IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}
