package mirror

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu    sync.Mutex
	fails int
	keys  []string
	calls int
}

func (f *fakeUploader) PutFile(_ context.Context, key, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fails > 0 {
		f.fails--
		return errors.New("boom")
	}
	f.keys = append(f.keys, key)
	return nil
}

func writeFile(t *testing.T, p string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o644))
}

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"snapshots/a.snap.zst":   "snapshots/a.snap.zst",
		"/snapshots//a":          "snapshots/a",
		`archives\epoch_000001`:  "archives/epoch_000001",
		"../../etc/passwd":       "etc/passwd",
		"  ":                     "",
		"/":                      "",
		"a/../b":                 "b",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeKey(in), in)
	}
}

func TestMirrorUploadsWithPrefix(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "snapshots", "000000000010.snap.zst")
	writeFile(t, p)

	up := &fakeUploader{fails: 2}
	m := New(up, dir, Options{Prefix: "/node-a/", Backoff: time.Millisecond}, zerolog.Nop())
	m.Enqueue(p)
	m.Close()

	assert.Equal(t, []string{"node-a/snapshots/000000000010.snap.zst"}, up.keys)
	assert.Equal(t, 3, up.calls)
	s := m.Stats()
	assert.EqualValues(t, 1, s.Enqueued)
	assert.EqualValues(t, 1, s.Uploaded)
	assert.Zero(t, s.Failed)
	assert.NotZero(t, s.LastSuccess)
}

func TestMirrorGivesUpAfterAttempts(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a")
	writeFile(t, p)

	up := &fakeUploader{fails: 10}
	m := New(up, dir, Options{Attempts: 2, Backoff: time.Millisecond}, zerolog.Nop())
	m.Enqueue(p)
	m.Close()

	assert.Equal(t, 2, up.calls)
	assert.EqualValues(t, 1, m.Stats().Failed)
	assert.NotZero(t, m.Stats().LastError)
}

func TestMirrorSkipsPathsOutsideDataDir(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(t.TempDir(), "x")
	writeFile(t, outside)

	up := &fakeUploader{}
	m := New(up, dir, Options{}, zerolog.Nop())
	m.Enqueue(outside, filepath.Join(dir, "missing"))
	m.Close()

	assert.Zero(t, up.calls)
	assert.EqualValues(t, 2, m.Stats().Failed)
}

func TestNilMirror(t *testing.T) {
	var m *Mirror
	m.Enqueue("x")
	m.Close()
	assert.Equal(t, Stats{}, m.Stats())
}

func TestClientPutFileSigns(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody string
		gotHash string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotHash = r.Header.Get("x-amz-content-sha256")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if strings.Contains(gotPath, "deny") {
			rw.WriteHeader(http.StatusForbidden)
			_, _ = rw.Write([]byte("AccessDenied"))
			return
		}
		rw.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{Endpoint: srv.URL, Bucket: "chronicles", AccessKey: "AK", SecretKey: "SK"})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	p := filepath.Join(t.TempDir(), "f")
	writeFile(t, p)
	require.NoError(t, c.PutFile(context.Background(), "snapshots/a b.zst", p))

	assert.Equal(t, "/chronicles/snapshots/a%20b.zst", gotPath)
	assert.Equal(t, "data", gotBody)
	// sha256("data")
	assert.Equal(t, "3a6eb0790f39ac87c94f3856b2dd2c5d110e6811602261a9a923d3bb23adc8b7", gotHash)
	assert.True(t, strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=AK/20260102/auto/s3/aws4_request, SignedHeaders=host;x-amz-content-sha256;x-amz-date, Signature="))

	err = c.PutFile(context.Background(), "deny/x", p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestNewClientValidates(t *testing.T) {
	_, err := NewClient(ClientConfig{Endpoint: "example.com", Bucket: "b"})
	assert.Error(t, err)

	c, err := NewClient(ClientConfig{Endpoint: "example.com/", Bucket: "b", AccessKey: "a", SecretKey: "s", Region: "eu-west-1"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", c.endpoint)
	assert.Equal(t, "eu-west-1", c.region)
}
