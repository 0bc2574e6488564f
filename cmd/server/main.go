package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"chronicles.ai/internal/node"
	"chronicles.ai/internal/persistence/archive"
	"chronicles.ai/internal/persistence/indexdb"
	persistlog "chronicles.ai/internal/persistence/log"
	"chronicles.ai/internal/persistence/mirror"
	"chronicles.ai/internal/persistence/snapshot"
	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/engine"
	"chronicles.ai/internal/sim/tuning"
	"chronicles.ai/internal/stage"
	"chronicles.ai/internal/transport/ws"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	var logger zerolog.Logger
	if cfg.LogJSON {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.StampMicro})
	}
	logger = logger.Level(cfg.logLevel()).With().Timestamp().Str("service", "server").Logger()

	cats, err := catalogs.Load(cfg.ConfigDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalogs")
	}
	tp := cfg.TuningPath
	if tp == "" {
		tp = filepath.Join(cfg.ConfigDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatal().Err(err).Str("path", tp).Msg("load tuning")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create data dir")
	}

	ctx, cancel := signalContext()
	defer cancel()

	eng := engine.New(action.DefaultRegistry(), cats, tune, logger)
	tip, height, err := restore(ctx, eng, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("restore world")
	}

	// Optional read-model index; the evaluation log is the source of truth.
	var idx *indexdb.SQLiteIndex
	if !cfg.DisableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(cfg.DataDir, "index", "chronicles.sqlite"))
		if err != nil {
			logger.Fatal().Err(err).Msg("open index")
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(cfg.ConfigDir, cats, tune); err != nil {
			logger.Warn().Err(err).Msg("index: upsert catalogs")
		}
	}

	pool := stage.NewPool(eng.Registry(), tune.Admission, nil, logger)
	n := node.New(eng, pool, tip, height, node.Config{}, logger)

	evLog := persistlog.NewEvaluationLogger(cfg.DataDir)
	defer evLog.Close()
	n.SetEvaluationLogger(evLog)
	if idx != nil {
		n.SetIndex(idx)
	}

	var mir *mirror.Mirror
	if cfg.Mirror.enabled() {
		client, err := mirror.NewClient(mirror.ClientConfig{
			Endpoint:  cfg.Mirror.Endpoint,
			Bucket:    cfg.Mirror.Bucket,
			Region:    cfg.Mirror.Region,
			AccessKey: cfg.Mirror.AccessKey,
			SecretKey: cfg.Mirror.SecretKey,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("mirror client")
		}
		mir = mirror.New(client, cfg.DataDir, mirror.Options{
			Prefix:  cfg.Mirror.Prefix,
			Workers: cfg.Mirror.Workers,
			Queue:   cfg.Mirror.Queue,
		}, logger)
		defer mir.Close()
		logger.Info().Str("bucket", cfg.Mirror.Bucket).Str("prefix", cfg.Mirror.Prefix).Msg("mirror enabled")
	}

	// Snapshot writer.
	snapCh := make(chan node.SnapshotRequest, 2)
	n.SetSnapshotSink(snapCh)
	snapDone := make(chan struct{})
	go func() {
		defer close(snapDone)
		for {
			select {
			case <-ctx.Done():
				return
			case req := <-snapCh:
				path := filepath.Join(cfg.DataDir, "snapshots", snapshot.FileName(req.Height))
				hdr, err := snapshot.WriteSnapshot(path, req.Height, cats.Digest, req.World)
				if err != nil {
					logger.Error().Err(err).Int64("height", req.Height).Msg("snapshot write")
					continue
				}
				logger.Info().Int64("height", req.Height).Str("path", path).Msg("snapshot written")
				idx.RecordSnapshot(path, hdr)
				mir.Enqueue(path)
				if archived, ok, err := archive.ArchiveEpochSnapshot(cfg.DataDir, path, hdr, tune.ArchiveEveryBlocks); err != nil {
					logger.Error().Err(err).Int64("height", req.Height).Msg("archive snapshot")
				} else if ok {
					logger.Info().Str("path", archived).Msg("epoch snapshot archived")
					mir.Enqueue(archived, filepath.Join(filepath.Dir(archived), "meta.json"))
				}
				if removed, err := archive.Prune(filepath.Dir(path), tune.KeepSnapshots); err != nil {
					logger.Error().Err(err).Msg("prune snapshots")
				} else if len(removed) > 0 {
					logger.Debug().Strs("removed", removed).Msg("pruned snapshots")
				}
			}
		}
	}()

	go func() {
		if err := n.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("node stopped")
		}
	}()

	rt := &runtime{
		node:   n,
		pool:   pool,
		ws:     ws.NewServer(n, logger),
		idx:    idx,
		mirror: mir,
		snapCh: snapCh,
		log:    logger,
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           rt.mux(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Info().Str("addr", cfg.Addr).Int64("height", height).Str("root", tip.StateRootHex()).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("ListenAndServe")
	}
	<-snapDone
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
