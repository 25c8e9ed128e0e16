// Package storage persists index metadata and shared cache entries, and measures artifact disk usage.
package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// sqliteSidecars are written next to a database in WAL mode and belong to its footprint.
var sqliteSidecars = []string{"-wal", "-shm"}

// Usage is the on-disk footprint of a set of artifacts.
type Usage struct {
	Total int64            `json:"total_bytes"`
	Paths map[string]int64 `json:"paths"`
}

// DiskUsage sizes each path. A file counts together with any SQLite sidecars beside it; a
// directory is summed recursively. Missing paths are reported as zero.
func DiskUsage(paths ...string) (*Usage, error) {
	u := &Usage{Paths: make(map[string]int64, len(paths))}
	for _, p := range paths {
		if p == "" {
			continue
		}
		n, err := pathSize(p)
		if err != nil {
			return nil, err
		}
		u.Paths[p] = n
		u.Total += n
	}
	return u, nil
}

// DiskUsageBytes returns the total size in bytes of the given paths.
func DiskUsageBytes(paths ...string) (int64, error) {
	u, err := DiskUsage(paths...)
	if err != nil {
		return 0, err
	}
	return u.Total, nil
}

func pathSize(p string) (int64, error) {
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return dirSize(p)
	}
	total := info.Size()
	for _, suffix := range sqliteSidecars {
		if side, err := os.Stat(p + suffix); err == nil && !side.IsDir() {
			total += side.Size()
		}
	}
	return total, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
