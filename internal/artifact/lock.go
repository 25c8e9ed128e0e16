package artifact

import "errors"

// ErrLocked is returned when another process holds the artifact write lock.
var ErrLocked = errors.New("artifact: lock held by another process")

// Lock is an exclusive advisory lock on the artifact directory.
type Lock struct {
	path    string
	release func() error
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. Calling it more than once is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.release == nil {
		return nil
	}
	rel := l.release
	l.release = nil
	return rel()
}
