package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/rs/zerolog"

	"chronicles.ai/internal/node"
	"chronicles.ai/internal/persistence/indexdb"
	"chronicles.ai/internal/persistence/mirror"
	"chronicles.ai/internal/stage"
	"chronicles.ai/internal/transport/ws"
)

type runtime struct {
	node   *node.Node
	pool   *stage.Pool
	ws     *ws.Server
	idx    *indexdb.SQLiteIndex
	mirror *mirror.Mirror
	snapCh chan<- node.SnapshotRequest
	log    zerolog.Logger
}

func (rt *runtime) mux(cfg config) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", rt.metrics)
	mux.HandleFunc("/v1/ws", rt.ws.Handler())

	if cfg.EnableAdminHTTP {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", rt.adminState)
		mux.HandleFunc("/admin/v1/snapshot", rt.adminSnapshot)
	} else {
		rt.log.Info().Msg("admin endpoints disabled (CHRONICLES_ENABLE_ADMIN_HTTP=false)")
	}
	if cfg.EnablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

// metrics writes a minimal Prometheus exposition.
func (rt *runtime) metrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, height := rt.node.Tip()
	fmt.Fprintf(rw, "# HELP chronicles_block_height Height of the last produced block.\n")
	fmt.Fprintf(rw, "# TYPE chronicles_block_height gauge\n")
	fmt.Fprintf(rw, "chronicles_block_height %d\n", height)
	fmt.Fprintf(rw, "# HELP chronicles_staged_txs Transactions waiting for a block.\n")
	fmt.Fprintf(rw, "# TYPE chronicles_staged_txs gauge\n")
	fmt.Fprintf(rw, "chronicles_staged_txs %d\n", rt.pool.Len())
	fmt.Fprintf(rw, "# HELP chronicles_ws_sessions Connected websocket clients.\n")
	fmt.Fprintf(rw, "# TYPE chronicles_ws_sessions gauge\n")
	fmt.Fprintf(rw, "chronicles_ws_sessions %d\n", rt.ws.Sessions())

	s := rt.idx.Stats()
	fmt.Fprintf(rw, "# HELP chronicles_index_queue_depth Index writer queue depth.\n")
	fmt.Fprintf(rw, "# TYPE chronicles_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "chronicles_index_queue_depth %d\n", s.QueueDepth)
	fmt.Fprintf(rw, "# HELP chronicles_index_dropped_total Index writes dropped because the queue was full.\n")
	fmt.Fprintf(rw, "# TYPE chronicles_index_dropped_total counter\n")
	fmt.Fprintf(rw, "chronicles_index_dropped_total{kind=%q} %d\n", "evaluation", s.DropEvaluationTotal)
	fmt.Fprintf(rw, "chronicles_index_dropped_total{kind=%q} %d\n", "block", s.DropBlockTotal)
	fmt.Fprintf(rw, "chronicles_index_dropped_total{kind=%q} %d\n", "snapshot", s.DropSnapshotTotal)
	fmt.Fprintf(rw, "# HELP chronicles_index_lost_writes_total Index writes lost to failed batches.\n")
	fmt.Fprintf(rw, "# TYPE chronicles_index_lost_writes_total counter\n")
	fmt.Fprintf(rw, "chronicles_index_lost_writes_total %d\n", s.LostWriteTotal)
	fmt.Fprintf(rw, "# HELP chronicles_index_commit_failures_total Index batch commits that failed.\n")
	fmt.Fprintf(rw, "# TYPE chronicles_index_commit_failures_total counter\n")
	fmt.Fprintf(rw, "chronicles_index_commit_failures_total %d\n", s.CommitFailTotal)

	if rt.mirror == nil {
		return
	}
	ms := rt.mirror.Stats()
	fmt.Fprintf(rw, "# HELP chronicles_mirror_queue_depth Files waiting for upload.\n")
	fmt.Fprintf(rw, "# TYPE chronicles_mirror_queue_depth gauge\n")
	fmt.Fprintf(rw, "chronicles_mirror_queue_depth %d\n", ms.QueueDepth)
	fmt.Fprintf(rw, "# HELP chronicles_mirror_files_total Mirrored files by outcome.\n")
	fmt.Fprintf(rw, "# TYPE chronicles_mirror_files_total counter\n")
	fmt.Fprintf(rw, "chronicles_mirror_files_total{outcome=%q} %d\n", "uploaded", ms.Uploaded)
	fmt.Fprintf(rw, "chronicles_mirror_files_total{outcome=%q} %d\n", "failed", ms.Failed)
	fmt.Fprintf(rw, "chronicles_mirror_files_total{outcome=%q} %d\n", "dropped", ms.Dropped)
}

func (rt *runtime) adminState(rw http.ResponseWriter, r *http.Request) {
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	tip, height := rt.node.Tip()
	eng := rt.node.Engine()
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(struct {
		Height        int64         `json:"height"`
		StateRoot     string        `json:"state_root"`
		CatalogDigest string        `json:"catalog_digest"`
		Staged        int           `json:"staged"`
		Sessions      int64         `json:"sessions"`
		Index         indexdb.Stats `json:"index"`
	}{
		Height:        height,
		StateRoot:     tip.StateRootHex(),
		CatalogDigest: eng.Catalogs().Digest,
		Staged:        rt.pool.Len(),
		Sessions:      rt.ws.Sessions(),
		Index:         rt.idx.Stats(),
	})
}

// adminSnapshot queues a snapshot of the current tip.
func (rt *runtime) adminSnapshot(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	tip, height := rt.node.Tip()
	rw.Header().Set("Content-Type", "application/json")
	select {
	case rt.snapCh <- node.SnapshotRequest{Height: height, World: tip}:
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "height": height})
	default:
		rw.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "height": height, "error": "snapshot writer busy"})
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
