package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	persistlog "chronicles.ai/internal/persistence/log"
	"chronicles.ai/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints the snapshots and evaluation logs under the data dir.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	snaps, err := filepath.Glob(filepath.Join(*dataDir, "snapshots", "snapshot-*.snap.zst"))
	if err != nil {
		fail("list snapshots", err)
	}
	logs, err := persistlog.EvaluationFiles(*dataDir)
	if err != nil {
		fail("list evaluation logs", err)
	}
	if len(snaps) == 0 && len(logs) == 0 {
		fmt.Println("no snapshots or evaluation logs in", *dataDir)
		return
	}
	for _, p := range snaps {
		hdr, err := snapshot.ReadHeader(p)
		if err != nil {
			fmt.Printf("%-48s  unreadable: %v\n", filepath.Base(p), err)
			continue
		}
		fmt.Printf("%-48s  height=%-10s root=%s  %s\n", filepath.Base(p), humanize.Comma(hdr.Height), short(hdr.StateRoot), fileInfo(p))
	}
	for _, p := range logs {
		fmt.Printf("%-48s  %s\n", filepath.Base(p), fileInfo(p))
	}
}

// inspectCmd summarises one snapshot: header plus world contents.
func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	snapPath := fs.String("snapshot", "", "snapshot path (default: latest)")
	_ = fs.Parse(args)

	path := *snapPath
	if path == "" {
		latest, err := snapshot.Latest(filepath.Join(*dataDir, "snapshots"))
		if err != nil {
			fail("find snapshot", err)
		}
		if latest == "" {
			fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run server until it writes one")
			os.Exit(2)
		}
		path = latest
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fail("read snapshot", err)
	}
	fmt.Printf("snapshot:       %s\n", path)
	fmt.Printf("version:        %d\n", snap.Header.Version)
	fmt.Printf("height:         %s\n", humanize.Comma(snap.Header.Height))
	fmt.Printf("state root:     %s\n", snap.Header.StateRoot)
	fmt.Printf("catalog digest: %s\n", snap.Header.CatalogDigest)
	fmt.Printf("body:           %s\n", humanize.Bytes(uint64(snap.Header.BodyBytes)))
	fmt.Printf("states:         %s\n", humanize.Comma(int64(len(snap.World.Addresses()))))
	fmt.Printf("balances:       %s\n", humanize.Comma(int64(len(snap.World.Balances()))))
}

func fileInfo(path string) string {
	st, err := os.Stat(path)
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("%8s  %s", humanize.Bytes(uint64(st.Size())), humanize.RelTime(st.ModTime(), time.Now(), "ago", "from now"))
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
