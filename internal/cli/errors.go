package cli

import (
	"errors"
	"fmt"
)

// ErrUsage marks errors caused by how rulespec was invoked: bad flags, an
// unreadable config or manifest, or an output path that cannot be used.
// main exits with status 2 for them.
var ErrUsage = errors.New("cli usage error")

type usageError struct {
	err error
}

func newUsageError(msg string) error {
	return usageError{err: errors.New(msg)}
}

// usageErrorf formats like fmt.Errorf, so %w keeps the cause reachable.
func usageErrorf(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}
