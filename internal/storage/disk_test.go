package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, n int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, n), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	vectors := filepath.Join(dir, "embeddings.npy")
	writeFile(t, vectors, 5)
	sub := filepath.Join(dir, "index")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(sub, "a"), 2)
	writeFile(t, filepath.Join(sub, "b"), 1)

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{vectors}, 5},
		{"directory", []string{sub}, 3},
		{"file and directory", []string{vectors, sub}, 8},
		{"missing path skipped", []string{vectors, filepath.Join(dir, "nonexistent"), sub}, 8},
		{"empty path skipped", []string{"", vectors}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}

func TestDiskUsage_SQLiteSidecars(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "metadata.db")
	writeFile(t, db, 10)
	writeFile(t, db+"-wal", 4)
	writeFile(t, db+"-shm", 2)
	missing := filepath.Join(dir, "vectors.index")

	u, err := DiskUsage(db, missing)
	if err != nil {
		t.Fatal(err)
	}
	if u.Paths[db] != 16 {
		t.Errorf("metadata footprint = %d, want 16", u.Paths[db])
	}
	if n, ok := u.Paths[missing]; !ok || n != 0 {
		t.Errorf("missing path = %d (reported %t), want 0", n, ok)
	}
	if u.Total != 16 {
		t.Errorf("total = %d, want 16", u.Total)
	}
}
