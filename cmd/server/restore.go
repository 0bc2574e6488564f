package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"chronicles.ai/internal/genesis"
	"chronicles.ai/internal/persistence/snapshot"
	"chronicles.ai/internal/replay"
	"chronicles.ai/internal/sim/engine"
	"chronicles.ai/internal/sim/state"
)

// restore rebuilds the tip: the chosen snapshot (or genesis) plus every
// logged evaluation above its height.
func restore(ctx context.Context, eng *engine.Engine, cfg config, logger zerolog.Logger) (*state.World, int64, error) {
	path := strings.TrimSpace(cfg.Snapshot)
	if path == "" && cfg.LoadLatestSnapshot {
		latest, err := snapshot.Latest(filepath.Join(cfg.DataDir, "snapshots"))
		if err != nil {
			return nil, 0, err
		}
		path = latest
	}

	var (
		world  *state.World
		height int64
	)
	if path != "" {
		snap, err := snapshot.ReadSnapshot(path)
		if err != nil {
			return nil, 0, err
		}
		if d := eng.Catalogs().Digest; snap.Header.CatalogDigest != "" && snap.Header.CatalogDigest != d {
			logger.Warn().Str("snapshot", snap.Header.CatalogDigest).Str("configs", d).Msg("catalog digest changed since snapshot")
		}
		world, height = snap.World, snap.Header.Height
		logger.Info().Str("snapshot", filepath.Base(path)).Int64("height", height).Msg("loaded snapshot")
	} else {
		gp := cfg.GenesisPath
		if gp == "" {
			gp = filepath.Join(cfg.ConfigDir, "genesis.yaml")
		}
		gcfg, err := genesis.Load(gp)
		if err != nil {
			return nil, 0, err
		}
		world, err = genesis.Build(gcfg)
		if err != nil {
			return nil, 0, err
		}
		logger.Info().Str("root", world.StateRootHex()).Msg("built genesis")
	}

	world, rep, err := replay.Run(ctx, eng, world, height, cfg.DataDir, replay.Options{})
	if err != nil {
		return nil, 0, oops.Wrapf(err, "replay evaluation log")
	}
	if rep.Replayed > 0 {
		logger.Info().Int("evaluations", rep.Replayed).Int64("height", rep.EndHeight).Str("root", rep.FinalRoot).Msg("replayed evaluation log")
	}
	return world, rep.EndHeight, nil
}
