//go:build !unix

package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// AcquireLock creates path exclusively; an existing file means the lock is held.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	return &Lock{
		path: path,
		release: func() error {
			f.Close()
			return os.Remove(path)
		},
	}, nil
}
