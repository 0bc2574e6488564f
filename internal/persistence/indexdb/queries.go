package indexdb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"
)

func (s *SQLiteIndex) Evaluation(ctx context.Context, txID string) (EvaluationRow, bool, error) {
	var r EvaluationRow
	err := s.db.GetContext(ctx, &r, `SELECT * FROM evaluations WHERE tx_id = ?`, txID)
	if errors.Is(err, sql.ErrNoRows) {
		return r, false, nil
	}
	if err != nil {
		return r, false, oops.Wrapf(err, "get evaluation %s", txID)
	}
	return r, true, nil
}

// EvaluationsAt returns the evaluations of one block in execution order.
func (s *SQLiteIndex) EvaluationsAt(ctx context.Context, height int64) ([]EvaluationRow, error) {
	var rows []EvaluationRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM evaluations WHERE height = ? ORDER BY seq`, height); err != nil {
		return nil, oops.Wrapf(err, "list evaluations at %d", height)
	}
	return rows, nil
}

// EvaluationsBySigner returns the newest evaluations signed by signer.
func (s *SQLiteIndex) EvaluationsBySigner(ctx context.Context, signer string, limit int) ([]EvaluationRow, error) {
	var rows []EvaluationRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM evaluations WHERE signer = ? ORDER BY height DESC, seq DESC LIMIT ?`, signer, limit); err != nil {
		return nil, oops.Wrapf(err, "list evaluations for %s", signer)
	}
	return rows, nil
}

// ErrorKindCounts counts evaluations per error kind; "" counts successes.
func (s *SQLiteIndex) ErrorKindCounts(ctx context.Context) ([]KindCount, error) {
	var rows []KindCount
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT error_kind, COUNT(*) AS n FROM evaluations GROUP BY error_kind ORDER BY error_kind`); err != nil {
		return nil, oops.Wrapf(err, "count error kinds")
	}
	return rows, nil
}

func (s *SQLiteIndex) Blocks(ctx context.Context, limit int) ([]BlockRow, error) {
	var rows []BlockRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM blocks ORDER BY height DESC LIMIT ?`, limit); err != nil {
		return nil, oops.Wrapf(err, "list blocks")
	}
	return rows, nil
}

func (s *SQLiteIndex) Snapshots(ctx context.Context) ([]SnapshotRow, error) {
	var rows []SnapshotRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM snapshots ORDER BY height`); err != nil {
		return nil, oops.Wrapf(err, "list snapshots")
	}
	return rows, nil
}

func (s *SQLiteIndex) Catalogs(ctx context.Context) ([]CatalogRow, error) {
	var rows []CatalogRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT name, digest, updated_at FROM catalogs ORDER BY name`); err != nil {
		return nil, oops.Wrapf(err, "list catalogs")
	}
	return rows, nil
}

func (s *SQLiteIndex) Meta(ctx context.Context, key string) (string, error) {
	var v string
	if err := s.db.GetContext(ctx, &v, `SELECT value FROM meta WHERE key = ?`, key); err != nil {
		return "", oops.Wrapf(err, "get meta %s", key)
	}
	return v, nil
}
