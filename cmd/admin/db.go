package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"chronicles.ai/internal/persistence/indexdb"
)

// dbCmd queries the sqlite index the server maintains.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/chronicles.sqlite)")
	height := fs.Int64("height", 0, "block height (evaluations)")
	signer := fs.String("signer", "", "signer address (evaluations)")
	txID := fs.String("tx", "", "transaction id (tx)")
	limit := fs.Int("limit", 20, "result limit")
	asJSON := fs.Bool("json", false, "print JSON lines")
	_ = fs.Parse(args)

	q := "blocks"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "chronicles.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fail("open index", err)
	}

	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fail("open index", err)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var out any
	switch q {
	case "blocks":
		out, err = idx.Blocks(ctx, *limit)
	case "evaluations":
		switch {
		case *signer != "":
			out, err = idx.EvaluationsBySigner(ctx, *signer, *limit)
		case *height > 0:
			out, err = idx.EvaluationsAt(ctx, *height)
		default:
			fmt.Fprintln(os.Stderr, "evaluations needs -height or -signer")
			os.Exit(2)
		}
	case "tx":
		if *txID == "" {
			fmt.Fprintln(os.Stderr, "tx needs -tx")
			os.Exit(2)
		}
		row, found, qerr := idx.Evaluation(ctx, *txID)
		if qerr == nil && !found {
			fmt.Fprintln(os.Stderr, "not found:", *txID)
			os.Exit(1)
		}
		out, err = []indexdb.EvaluationRow{row}, qerr
	case "errors":
		out, err = idx.ErrorKindCounts(ctx)
	case "snapshots":
		out, err = idx.Snapshots(ctx)
	case "catalogs":
		out, err = idx.Catalogs(ctx)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(blocks|evaluations|tx|errors|snapshots|catalogs)")
		os.Exit(2)
	}
	if err != nil {
		fail("query", err)
	}

	if *asJSON {
		printJSONLines(out)
		return
	}
	printTable(out)
}

func printJSONLines(rows any) {
	enc := json.NewEncoder(os.Stdout)
	switch rs := rows.(type) {
	case []indexdb.BlockRow:
		for _, r := range rs {
			_ = enc.Encode(r)
		}
	case []indexdb.EvaluationRow:
		for _, r := range rs {
			_ = enc.Encode(r)
		}
	case []indexdb.KindCount:
		for _, r := range rs {
			_ = enc.Encode(r)
		}
	case []indexdb.SnapshotRow:
		for _, r := range rs {
			_ = enc.Encode(r)
		}
	case []indexdb.CatalogRow:
		for _, r := range rs {
			_ = enc.Encode(r)
		}
	}
}

func printTable(rows any) {
	switch rs := rows.(type) {
	case []indexdb.BlockRow:
		for _, r := range rs {
			fmt.Printf("%10s  txs=%-5d failed=%-5d root=%s  %s\n", humanize.Comma(r.Height), r.TxCount, r.Failed, short(r.StateRoot), ago(r.ProducedAt))
		}
	case []indexdb.EvaluationRow:
		for _, r := range rs {
			outcome := "ok"
			if r.ErrorKind != "" {
				outcome = r.ErrorKind + ": " + r.ErrorDetail
			}
			fmt.Printf("%10s #%-3d %s %-28s %s  %s\n", humanize.Comma(r.Height), r.Seq, r.TxID, r.TypeID, short(r.Signer), outcome)
		}
	case []indexdb.KindCount:
		for _, r := range rs {
			kind := r.ErrorKind
			if kind == "" {
				kind = "(committed)"
			}
			fmt.Printf("%-28s %s\n", kind, humanize.Comma(int64(r.Count)))
		}
	case []indexdb.SnapshotRow:
		for _, r := range rs {
			fmt.Printf("%10s  %-8s root=%s  %s\n", humanize.Comma(r.Height), humanize.Bytes(uint64(r.BodyBytes)), short(r.StateRoot), r.Path)
		}
	case []indexdb.CatalogRow:
		for _, r := range rs {
			fmt.Printf("%-28s %s  %s\n", r.Name, short(r.Digest), ago(r.UpdatedAt))
		}
	}
}

func short(s string) string {
	if len(s) > 16 {
		return s[:16]
	}
	return s
}

// ago renders an RFC 3339 timestamp relative to now.
func ago(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return humanize.Time(t)
}
