package mirror

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

// Uploader is the part of Client the Mirror needs.
type Uploader interface {
	PutFile(ctx context.Context, key, localPath string) error
}

type Stats struct {
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	Enqueued      uint64 `json:"enqueued_total"`
	Dropped       uint64 `json:"dropped_total"`
	Uploaded      uint64 `json:"uploaded_total"`
	Failed        uint64 `json:"failed_total"`
	LastSuccess   int64  `json:"last_success_unix"`
	LastError     int64  `json:"last_error_unix"`
}

type Options struct {
	Prefix   string
	Workers  int
	Queue    int
	Attempts int
	// Backoff is multiplied by attempt² between retries.
	Backoff time.Duration
}

// Mirror uploads files below dataDir, keyed by their relative path. A nil
// *Mirror accepts and drops everything.
type Mirror struct {
	up      Uploader
	dataDir string
	opts    Options
	log     zerolog.Logger

	jobs chan string
	wg   sync.WaitGroup
	once sync.Once

	enqueued    atomic.Uint64
	dropped     atomic.Uint64
	uploaded    atomic.Uint64
	failed      atomic.Uint64
	lastSuccess atomic.Int64
	lastError   atomic.Int64
}

func New(up Uploader, dataDir string, opts Options, log zerolog.Logger) *Mirror {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Queue <= 0 {
		opts.Queue = 256
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 4
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	opts.Prefix = strings.Trim(strings.ReplaceAll(opts.Prefix, "\\", "/"), "/")
	m := &Mirror{
		up:      up,
		dataDir: dataDir,
		opts:    opts,
		log:     log.With().Str("component", "mirror").Logger(),
		jobs:    make(chan string, opts.Queue),
	}
	for i := 0; i < opts.Workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for p := range m.jobs {
				m.upload(p)
			}
		}()
	}
	return m
}

// Enqueue never blocks; paths are dropped when the queue is full.
func (m *Mirror) Enqueue(paths ...string) {
	if m == nil {
		return
	}
	for _, p := range paths {
		m.enqueued.Add(1)
		select {
		case m.jobs <- p:
		default:
			n := m.dropped.Add(1)
			m.log.Warn().Str("path", p).Uint64("dropped_total", n).Msg("mirror queue full, dropped")
		}
	}
}

// Close waits for queued uploads to finish.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	m.once.Do(func() { close(m.jobs) })
	m.wg.Wait()
}

func (m *Mirror) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(m.jobs),
		QueueCapacity: cap(m.jobs),
		Enqueued:      m.enqueued.Load(),
		Dropped:       m.dropped.Load(),
		Uploaded:      m.uploaded.Load(),
		Failed:        m.failed.Load(),
		LastSuccess:   m.lastSuccess.Load(),
		LastError:     m.lastError.Load(),
	}
}

func (m *Mirror) upload(localPath string) {
	key, err := m.objectKey(localPath)
	if err != nil {
		m.failed.Add(1)
		m.log.Warn().Err(err).Str("path", localPath).Msg("mirror skipped")
		return
	}
	var lastErr error
	for attempt := 1; attempt <= m.opts.Attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		lastErr = m.up.PutFile(ctx, key, localPath)
		cancel()
		if lastErr == nil {
			break
		}
		if attempt < m.opts.Attempts {
			time.Sleep(time.Duration(attempt*attempt) * m.opts.Backoff)
		}
	}
	if lastErr != nil {
		m.failed.Add(1)
		m.lastError.Store(time.Now().Unix())
		m.log.Error().Err(lastErr).Str("key", key).Msg("mirror upload failed")
		return
	}
	m.uploaded.Add(1)
	m.lastSuccess.Store(time.Now().Unix())
	m.log.Debug().Str("key", key).Msg("mirrored")
}

func (m *Mirror) objectKey(localPath string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", oops.In("mirror").Wrap(err)
	}
	base, err := filepath.Abs(m.dataDir)
	if err != nil {
		return "", oops.In("mirror").Wrap(err)
	}
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return "", oops.In("mirror").Wrap(err)
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return "", oops.In("mirror").Wrap(err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", oops.In("mirror").With("data_dir", base).Errorf("%s is outside the data dir", abs)
	}
	if m.opts.Prefix != "" {
		rel = path.Join(m.opts.Prefix, rel)
	}
	return rel, nil
}
