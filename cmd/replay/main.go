package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"chronicles.ai/internal/genesis"
	"chronicles.ai/internal/persistence/snapshot"
	"chronicles.ai/internal/replay"
	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/engine"
	"chronicles.ai/internal/sim/state"
	"chronicles.ai/internal/sim/tuning"
)

func main() {
	var (
		snapPath  = flag.String("snapshot", "", "path to .snap.zst (default: latest in <data>/snapshots, else genesis)")
		dataDir   = flag.String("data", "./data", "runtime data directory holding evaluations/")
		configDir = flag.String("configs", "./configs", "config directory")
		toHeight  = flag.Int64("to_height", 0, "stop after this block height (inclusive, optional)")
		verbose   = flag.Bool("v", false, "log every evaluation")
	)
	flag.Parse()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(level).With().Timestamp().Logger()

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fail("load catalogs", err)
	}
	tune, err := tuning.Load(filepath.Join(*configDir, "tuning.yaml"))
	if err != nil {
		fail("load tuning", err)
	}
	eng := engine.New(action.DefaultRegistry(), cats, tune, logger)

	path := *snapPath
	if path == "" {
		path, err = snapshot.Latest(filepath.Join(*dataDir, "snapshots"))
		if err != nil {
			fail("find snapshot", err)
		}
	}

	var (
		world  *state.World
		height int64
	)
	if path != "" {
		snap, err := snapshot.ReadSnapshot(path)
		if err != nil {
			fail("read snapshot", err)
		}
		if snap.Header.CatalogDigest != cats.Digest {
			fmt.Fprintf(os.Stderr, "warning: snapshot catalog digest %s differs from configs %s\n", short(snap.Header.CatalogDigest), short(cats.Digest))
		}
		world, height = snap.World, snap.Header.Height
		fmt.Printf("snapshot v%d height=%s root=%s body=%s\n",
			snap.Header.Version, humanize.Comma(height), short(snap.Header.StateRoot), humanize.Bytes(uint64(snap.Header.BodyBytes)))
	} else {
		cfg, err := genesis.Load(filepath.Join(*configDir, "genesis.yaml"))
		if err != nil {
			fail("load genesis", err)
		}
		world, err = genesis.Build(cfg)
		if err != nil {
			fail("build genesis", err)
		}
		fmt.Printf("genesis root=%s\n", short(world.StateRootHex()))
	}

	start := time.Now()
	_, rep, err := replay.Run(context.Background(), eng, world, height, *dataDir, replay.Options{ToHeight: *toHeight})
	if err != nil {
		fail("replay", err)
	}
	fmt.Printf("replay ok: %s evaluations (%s failed, %s skipped) heights %s..%s root=%s in %s\n",
		humanize.Comma(int64(rep.Replayed)), humanize.Comma(int64(rep.Failed)), humanize.Comma(int64(rep.Skipped)),
		humanize.Comma(rep.StartHeight), humanize.Comma(rep.EndHeight), short(rep.FinalRoot), time.Since(start).Round(time.Millisecond))
}

func short(root string) string {
	if len(root) > 16 {
		return root[:16]
	}
	return root
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
