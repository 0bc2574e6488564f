package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/samber/oops"

	"chronicles.ai/internal/sim/engine"
)

const (
	EvaluationPrefix = "evaluations"

	// DefaultSegmentLines bounds how many evaluations share one file.
	DefaultSegmentLines = 50_000
)

// SegmentWriter appends JSON lines to zstd segment files under dir. Every
// segment is a single zstd stream written by a single process: a writer
// never reopens an existing file, it starts a new segment instead.
type SegmentWriter struct {
	dir      string
	prefix   string
	maxLines int

	mu     sync.Mutex
	opened int
	lines  int
	path   string
	f      *os.File
	enc    *zstd.Encoder
	buf    *bufio.Writer
}

func NewSegmentWriter(dir, prefix string, maxLines int) *SegmentWriter {
	if maxLines <= 0 {
		maxLines = DefaultSegmentLines
	}
	return &SegmentWriter{dir: dir, prefix: prefix, maxLines: maxLines}
}

// Write appends v. When a new segment has to be opened its file is named
// after height so that lexical order is write order.
func (w *SegmentWriter) Write(height int64, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return oops.Wrapf(err, "encode log line")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.enc == nil || w.lines >= w.maxLines {
		if err := w.rotateLocked(height); err != nil {
			return err
		}
	}
	b = append(b, '\n')
	if _, err := w.buf.Write(b); err != nil {
		return oops.Wrapf(err, "write %s", w.path)
	}
	if err := w.buf.Flush(); err != nil {
		return oops.Wrapf(err, "flush %s", w.path)
	}
	w.lines++
	// Close the zstd block so a crash loses at most the line being written.
	return w.enc.Flush()
}

// Path is the segment currently written, or "" before the first Write.
func (w *SegmentWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

func (w *SegmentWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *SegmentWriter) rotateLocked(height int64) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return oops.Wrapf(err, "create %s", w.dir)
	}
	w.opened++
	p := filepath.Join(w.dir, fmt.Sprintf("%s-%012d-%04d.jsonl.zst", w.prefix, height, w.opened))
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return oops.Wrapf(err, "open %s", p)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return oops.Wrapf(err, "zstd writer for %s", p)
	}
	w.f, w.enc, w.path, w.lines = f, enc, p, 0
	w.buf = bufio.NewWriterSize(enc, 64*1024)
	return nil
}

func (w *SegmentWriter) closeLocked() error {
	if w.enc == nil {
		return nil
	}
	var err error
	if ferr := w.buf.Flush(); ferr != nil {
		err = ferr
	}
	if cerr := w.enc.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := w.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	w.f, w.enc, w.buf = nil, nil, nil
	if err != nil {
		return oops.Wrapf(err, "close %s", w.path)
	}
	return nil
}

// EvaluationLogger writes one line per executed transaction to
// <dataDir>/evaluations.
type EvaluationLogger struct{ w *SegmentWriter }

func NewEvaluationLogger(dataDir string) *EvaluationLogger {
	return NewEvaluationLoggerSize(dataDir, DefaultSegmentLines)
}

func NewEvaluationLoggerSize(dataDir string, linesPerSegment int) *EvaluationLogger {
	return &EvaluationLogger{w: NewSegmentWriter(filepath.Join(dataDir, "evaluations"), EvaluationPrefix, linesPerSegment)}
}

func (l *EvaluationLogger) WriteEvaluation(ev engine.Evaluation) error {
	return l.w.Write(ev.BlockHeight, ev)
}

func (l *EvaluationLogger) Close() error { return l.w.Close() }
