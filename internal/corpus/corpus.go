// Package corpus loads case records from a newline-delimited JSON corpus and derives the texts
// the indexing and retrieval stages operate on.
package corpus

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hyperjump/precedent/internal/models"
	"go.uber.org/zap"
)

// DefaultMaxLineBytes bounds a single corpus line; raw opinions can be several megabytes.
const DefaultMaxLineBytes = 64 << 20

// Snapshot is an ordered, read-only set of case records. Record i occupies embedding row i.
type Snapshot struct {
	Records []*models.CaseRecord
	// Skipped counts malformed lines dropped while loading.
	Skipped int
}

// LoadOption configures Load.
type LoadOption func(*loader)

type loader struct {
	logger       *zap.Logger
	maxLineBytes int
}

// WithLogger sets a logger for skipped-line warnings.
func WithLogger(l *zap.Logger) LoadOption {
	return func(ld *loader) { ld.logger = l }
}

// WithMaxLineBytes sets the longest accepted line, newline included. Longer lines are skipped.
func WithMaxLineBytes(n int) LoadOption {
	return func(ld *loader) {
		if n > 0 {
			ld.maxLineBytes = n
		}
	}
}

// Load reads the corpus file at path. Malformed and blank lines are skipped; record order is preserved.
func Load(ctx context.Context, path string, opts ...LoadOption) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return Read(ctx, f, opts...)
}

// Read parses JSONL records from r.
func Read(ctx context.Context, r io.Reader, opts ...LoadOption) (*Snapshot, error) {
	ld := &loader{logger: zap.NewNop(), maxLineBytes: DefaultMaxLineBytes}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.logger == nil {
		ld.logger = zap.NewNop()
	}

	snap := &Snapshot{}
	br := bufio.NewReaderSize(r, 1<<20)
	var buf []byte
	line := 0
	for {
		raw, tooLong, err := nextLine(br, buf[:0], ld.maxLineBytes)
		buf = raw
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read corpus: %w", err)
		}
		eof := err != nil
		if eof && len(raw) == 0 && !tooLong {
			break
		}
		line++
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		switch trimmed := bytes.TrimSpace(raw); {
		case tooLong:
			snap.Skipped++
			ld.logger.Warn("skipping oversized corpus line",
				zap.Int("line", line), zap.Int("max_bytes", ld.maxLineBytes))
		case len(trimmed) == 0:
		default:
			var rec models.CaseRecord
			if err := json.Unmarshal(trimmed, &rec); err != nil {
				snap.Skipped++
				ld.logger.Warn("skipping malformed corpus line", zap.Int("line", line), zap.Error(err))
				break
			}
			snap.Records = append(snap.Records, &rec)
		}
		if eof {
			break
		}
	}
	return snap, nil
}

// nextLine reads up to and including the next newline into buf. A line longer than limit is
// drained from br without being kept and reported with tooLong set.
func nextLine(br *bufio.Reader, buf []byte, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > limit {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return buf, tooLong, err
	}
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// At returns record i, or nil when i is out of range.
func (s *Snapshot) At(i int) *models.CaseRecord {
	if s == nil || i < 0 || i >= len(s.Records) {
		return nil
	}
	return s.Records[i]
}

// CaseIDs returns the case identifiers in row order.
func (s *Snapshot) CaseIDs() []string {
	ids := make([]string, s.Len())
	for i, rec := range s.Records {
		ids[i] = rec.CaseID
	}
	return ids
}
