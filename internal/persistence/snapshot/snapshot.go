// Package snapshot stores world snapshots as a JSON header line followed by
// the canonical encoding of the world, all inside one zstd stream.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/samber/oops"

	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/state"
)

const Version = 1

type Header struct {
	Version       int    `json:"version"`
	Height        int64  `json:"height"`
	StateRoot     string `json:"state_root"`
	CatalogDigest string `json:"catalog_digest,omitempty"`
	BodyBytes     int    `json:"body_bytes"`
}

// Snapshot is a decoded snapshot file.
type Snapshot struct {
	Header Header
	World  *state.World
}

// FileName is the conventional name for the snapshot at height.
func FileName(height int64) string {
	return fmt.Sprintf("snapshot-%012d.snap.zst", height)
}

func WriteSnapshot(path string, height int64, catalogDigest string, w *state.World) (Header, error) {
	body, err := encoding.Encode(w.Encode())
	if err != nil {
		return Header{}, oops.Wrapf(err, "encode world at height %d", height)
	}
	hdr := Header{
		Version:       Version,
		Height:        height,
		StateRoot:     w.StateRootHex(),
		CatalogDigest: catalogDigest,
		BodyBytes:     len(body),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return hdr, oops.Wrapf(err, "create snapshot dir for %s", path)
	}
	// Write to a temp file and rename, so a crash never leaves a torn snapshot.
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return hdr, oops.Wrapf(err, "open %s", tmp)
	}
	if err := writeTo(f, hdr, body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return hdr, oops.Wrapf(err, "write snapshot %s", path)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return hdr, oops.Wrapf(err, "close %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return hdr, oops.Wrapf(err, "rename %s", tmp)
	}
	return hdr, nil
}

func writeTo(f io.Writer, hdr Header, body []byte) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(hdr)
	if err != nil {
		_ = enc.Close()
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if _, err := bw.Write(body); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// ReadHeader decodes only the header line.
func ReadHeader(path string) (Header, error) {
	var hdr Header
	f, err := os.Open(path)
	if err != nil {
		return hdr, oops.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, oops.Wrapf(err, "zstd reader for %s", path)
	}
	defer dec.Close()

	hdr, err = readHeader(bufio.NewReaderSize(dec, 64*1024))
	if err != nil {
		return hdr, oops.Wrapf(err, "read header of %s", path)
	}
	return hdr, nil
}

func readHeader(br *bufio.Reader) (Header, error) {
	var hdr Header
	line, err := br.ReadBytes('\n')
	if err != nil {
		return hdr, err
	}
	if err := json.Unmarshal(line, &hdr); err != nil {
		return hdr, err
	}
	if hdr.Version != Version {
		return hdr, oops.Errorf("unsupported snapshot version %d", hdr.Version)
	}
	return hdr, nil
}

// ReadSnapshot decodes the file at path and checks the recomputed state
// root against the header.
func ReadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, oops.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, oops.Wrapf(err, "zstd reader for %s", path)
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	hdr, err := readHeader(br)
	if err != nil {
		return snap, oops.Wrapf(err, "read header of %s", path)
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return snap, oops.Wrapf(err, "read body of %s", path)
	}
	if len(body) != hdr.BodyBytes {
		return snap, oops.Errorf("snapshot %s: body is %d bytes, header says %d", path, len(body), hdr.BodyBytes)
	}
	v, err := encoding.Decode(body)
	if err != nil {
		return snap, oops.Wrapf(err, "decode body of %s", path)
	}
	w, err := state.DecodeWorld(v)
	if err != nil {
		return snap, oops.Wrapf(err, "decode world in %s", path)
	}
	if root := w.StateRootHex(); root != hdr.StateRoot {
		return snap, oops.Errorf("snapshot %s: state root %s does not match header %s", path, root, hdr.StateRoot)
	}
	snap.Header = hdr
	snap.World = w
	return snap, nil
}

// Latest returns the path of the highest snapshot in dir, or "" when there
// is none.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "snapshot-*.snap.zst"))
	if err != nil {
		return "", oops.Wrapf(err, "list snapshots in %s", dir)
	}
	if len(matches) == 0 {
		return "", nil
	}
	// Zero-padded heights sort lexically.
	latest := matches[0]
	for _, m := range matches[1:] {
		if m > latest {
			latest = m
		}
	}
	return latest, nil
}
