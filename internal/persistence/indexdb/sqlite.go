package indexdb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"
	_ "modernc.org/sqlite"

	"chronicles.ai/internal/persistence/snapshot"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/engine"
	"chronicles.ai/internal/sim/tuning"
)

const SchemaVersion = "1"

// SQLiteIndex is a secondary, queryable copy of the evaluation log. Writes
// are queued and applied by one goroutine in batched transactions; the
// JSONL log stays the source of truth.
type SQLiteIndex struct {
	db *sqlx.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropEvaluation atomic.Uint64
	dropBlock      atomic.Uint64
	dropSnapshot   atomic.Uint64
	commitFailed   atomic.Uint64
	lostWrites     atomic.Uint64
}

type reqKind int

const (
	reqEvaluation reqKind = iota + 1
	reqBlock
	reqSnapshot
	reqFlush
)

type req struct {
	kind reqKind

	evaluation EvaluationRow
	block      BlockRow
	snapshot   SnapshotRow
	done       chan struct{}
}

type EvaluationRow struct {
	TxID         string `db:"tx_id" json:"tx_id"`
	Height       int64  `db:"height" json:"height"`
	Seq          int    `db:"seq" json:"seq"`
	TypeID       string `db:"type_id" json:"type_id"`
	Signer       string `db:"signer" json:"signer"`
	Seed         int64  `db:"seed" json:"seed"`
	GasUsed      int64  `db:"gas_used" json:"gas_used"`
	RandomDraws  int64  `db:"random_draws" json:"random_draws"`
	PreviousRoot string `db:"previous_root" json:"previous_root"`
	OutputRoot   string `db:"output_root" json:"output_root"`
	ErrorKind    string `db:"error_kind" json:"error_kind,omitempty"`
	ErrorDetail  string `db:"error_detail" json:"error_detail,omitempty"`
}

type BlockRow struct {
	Height     int64  `db:"height" json:"height"`
	StateRoot  string `db:"state_root" json:"state_root"`
	TxCount    int    `db:"tx_count" json:"tx_count"`
	Failed     int    `db:"failed" json:"failed"`
	ProducedAt string `db:"produced_at" json:"produced_at"`
}

type SnapshotRow struct {
	Height        int64  `db:"height" json:"height"`
	Path          string `db:"path" json:"path"`
	StateRoot     string `db:"state_root" json:"state_root"`
	CatalogDigest string `db:"catalog_digest" json:"catalog_digest"`
	BodyBytes     int    `db:"body_bytes" json:"body_bytes"`
}

type KindCount struct {
	ErrorKind string `db:"error_kind" json:"error_kind"`
	Count     int    `db:"n" json:"count"`
}

type CatalogRow struct {
	Name      string `db:"name" json:"name"`
	Digest    string `db:"digest" json:"digest"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

type Stats struct {
	QueueDepth          int    `json:"queue_depth"`
	QueueCapacity       int    `json:"queue_capacity"`
	DropEvaluationTotal uint64 `json:"drop_evaluation_total"`
	DropBlockTotal      uint64 `json:"drop_block_total"`
	DropSnapshotTotal   uint64 `json:"drop_snapshot_total"`
	CommitFailTotal     uint64 `json:"commit_fail_total"`
	// LostWriteTotal counts queued writes that never landed because their
	// batch failed to begin, execute or commit.
	LostWriteTotal uint64 `json:"lost_write_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, oops.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, oops.Wrapf(err, "create index dir for %s", path)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, oops.Wrapf(err, "open index %s", path)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, oops.Wrapf(err, "pragmas for %s", path)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, oops.Wrapf(err, "schema for %s", path)
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sqlx.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			body TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS blocks (
			height INTEGER PRIMARY KEY,
			state_root TEXT NOT NULL,
			tx_count INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			produced_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS evaluations (
			tx_id TEXT PRIMARY KEY,
			height INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			type_id TEXT NOT NULL,
			signer TEXT NOT NULL,
			seed INTEGER NOT NULL,
			gas_used INTEGER NOT NULL,
			random_draws INTEGER NOT NULL,
			previous_root TEXT NOT NULL,
			output_root TEXT NOT NULL,
			error_kind TEXT NOT NULL,
			error_detail TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_height_seq ON evaluations(height, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_signer_height ON evaluations(signer, height);`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_type ON evaluations(type_id);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			height INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			state_root TEXT NOT NULL,
			catalog_digest TEXT NOT NULL,
			body_bytes INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:          len(s.ch),
		QueueCapacity:       cap(s.ch),
		DropEvaluationTotal: s.dropEvaluation.Load(),
		DropBlockTotal:      s.dropBlock.Load(),
		DropSnapshotTotal:   s.dropSnapshot.Load(),
		CommitFailTotal:     s.commitFailed.Load(),
		LostWriteTotal:      s.lostWrites.Load(),
	}
}

// WriteEvaluation queues ev as the seq-th transaction of its block.
func (s *SQLiteIndex) WriteEvaluation(seq int, ev engine.Evaluation) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	r := EvaluationRow{
		TxID:         ev.TxID,
		Height:       ev.BlockHeight,
		Seq:          seq,
		TypeID:       ev.TypeID,
		Signer:       ev.Signer,
		Seed:         ev.Seed,
		GasUsed:      int64(ev.GasUsed),
		RandomDraws:  int64(ev.RandomDraws),
		PreviousRoot: ev.PreviousRoot,
		OutputRoot:   ev.OutputRoot,
		ErrorKind:    ev.ErrorKind,
		ErrorDetail:  ev.ErrorDetail,
	}
	select {
	case s.ch <- req{kind: reqEvaluation, evaluation: r}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropEvaluation.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordBlock(height int64, stateRoot string, txCount, failed int) {
	if s == nil || s.closed.Load() {
		return
	}
	r := BlockRow{
		Height:     height,
		StateRoot:  stateRoot,
		TxCount:    txCount,
		Failed:     failed,
		ProducedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqBlock, block: r}:
	default:
		s.dropBlock.Add(1)
	}
}

func (s *SQLiteIndex) RecordSnapshot(path string, hdr snapshot.Header) {
	if s == nil || s.closed.Load() {
		return
	}
	r := SnapshotRow{
		Height:        hdr.Height,
		Path:          path,
		StateRoot:     hdr.StateRoot,
		CatalogDigest: hdr.CatalogDigest,
		BodyBytes:     hdr.BodyBytes,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// Flush blocks until every write queued before it is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpsertCatalogs stores every catalog file with its digest, plus the tuning
// values actually applied.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		body   []byte
	}
	names := make([]string, 0, len(cats.Digests))
	for name := range cats.Digests {
		names = append(names, name)
	}
	sort.Strings(names)
	var rows []kv
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(configDir, name))
		if err != nil {
			continue
		}
		rows = append(rows, kv{name: name, digest: cats.Digests[name], body: b})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), body: b})
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return oops.Wrapf(err, "begin catalog upsert")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version',?)`, SchemaVersion); err != nil {
		return oops.Wrapf(err, "write schema version")
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('catalog_digest',?)`, cats.Digest); err != nil {
		return oops.Wrapf(err, "write catalog digest")
	}
	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO catalogs(name,digest,body,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return oops.Wrapf(err, "prepare catalog upsert")
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.name, r.digest, string(r.body), now); err != nil {
			return oops.Wrapf(err, "upsert catalog %s", r.name)
		}
	}
	if err := tx.Commit(); err != nil {
		return oops.Wrapf(err, "commit catalog upsert")
	}
	return nil
}

// commitBatch commits tx holding ops writes and accounts for them when the
// commit fails.
func (s *SQLiteIndex) commitBatch(tx *sqlx.Tx, ops int) {
	if err := tx.Commit(); err != nil {
		s.commitFailed.Add(1)
		s.lostWrites.Add(uint64(ops))
	}
}

func (s *SQLiteIndex) loop() {
	insertEvaluation, _ := s.db.PrepareNamed(`INSERT OR REPLACE INTO evaluations
		(tx_id,height,seq,type_id,signer,seed,gas_used,random_draws,previous_root,output_root,error_kind,error_detail)
		VALUES(:tx_id,:height,:seq,:type_id,:signer,:seed,:gas_used,:random_draws,:previous_root,:output_root,:error_kind,:error_detail)`)
	insertBlock, _ := s.db.PrepareNamed(`INSERT OR REPLACE INTO blocks(height,state_root,tx_count,failed,produced_at)
		VALUES(:height,:state_root,:tx_count,:failed,:produced_at)`)
	insertSnapshot, _ := s.db.PrepareNamed(`INSERT OR REPLACE INTO snapshots(height,path,state_root,catalog_digest,body_bytes)
		VALUES(:height,:path,:state_root,:catalog_digest,:body_bytes)`)
	defer func() {
		for _, st := range []*sqlx.NamedStmt{insertEvaluation, insertBlock, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sqlx.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.Beginx()
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		s.commitBatch(tx, opCount)
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sqlx.NamedStmt, arg any) {
		if st == nil {
			return
		}
		if _, err := tx.NamedStmt(st).Exec(arg); err != nil {
			s.lostWrites.Add(uint64(opCount + 1))
			rollback()
			return
		}
		opCount++
	}

	ticker := time.NewTicker(commitMaxWait)
	defer ticker.Stop()

	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			if r.kind == reqFlush {
				commit()
				close(r.done)
				continue
			}
			begin()
			if tx == nil {
				s.lostWrites.Add(1)
				continue
			}
			switch r.kind {
			case reqEvaluation:
				exec(insertEvaluation, r.evaluation)
			case reqBlock:
				exec(insertBlock, r.block)
			case reqSnapshot:
				exec(insertSnapshot, r.snapshot)
			}
			if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
		case <-ticker.C:
			if tx != nil && time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
		}
	}
}
