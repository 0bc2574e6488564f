// Package archive keeps the snapshot directory bounded: epoch snapshots are
// copied into archives/ and all but the newest snapshots are removed.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/samber/oops"

	"chronicles.ai/internal/persistence/snapshot"
)

type EpochMeta struct {
	Epoch         int64  `json:"epoch"`
	Height        int64  `json:"height"`
	StateRoot     string `json:"state_root"`
	CatalogDigest string `json:"catalog_digest"`
	Snapshot      string `json:"snapshot"`
	CreatedAt     string `json:"created_at"`
}

// ArchiveEpochSnapshot copies a snapshot whose height is a multiple of every
// into dataDir/archives/epoch_<NNNNNN>/. It reports archived=false for any
// other height.
func ArchiveEpochSnapshot(dataDir, snapshotPath string, hdr snapshot.Header, every int64) (archivedPath string, archived bool, err error) {
	if every <= 0 || hdr.Height <= 0 || hdr.Height%every != 0 {
		return "", false, nil
	}
	epoch := hdr.Height / every

	archiveDir := filepath.Join(dataDir, "archives", fmt.Sprintf("epoch_%06d", epoch))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, oops.Wrapf(err, "create %s", archiveDir)
	}
	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := EpochMeta{
		Epoch:         epoch,
		Height:        hdr.Height,
		StateRoot:     hdr.StateRoot,
		CatalogDigest: hdr.CatalogDigest,
		Snapshot:      filepath.Base(dst),
		CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}
	return dst, true, nil
}

// Prune removes all but the keep newest snapshots in dir and returns the
// removed paths. keep <= 0 removes nothing.
func Prune(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "snapshot-*.snap.zst"))
	if err != nil {
		return nil, oops.Wrapf(err, "list snapshots in %s", dir)
	}
	if len(matches) <= keep {
		return nil, nil
	}
	// Zero-padded heights sort lexically.
	sort.Strings(matches)
	var removed []string
	for _, p := range matches[:len(matches)-keep] {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return removed, oops.Wrapf(err, "remove %s", p)
		}
		removed = append(removed, p)
	}
	return removed, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return oops.Wrapf(err, "open %s", src)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return oops.Wrapf(err, "create %s", tmp)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return oops.Wrapf(err, "copy %s", src)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
