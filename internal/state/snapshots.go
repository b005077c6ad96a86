package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// SaveSnapshots stores catalog snapshots taken on one side of a run.
func (s *SQLiteStore) SaveSnapshots(ctx context.Context, runID string, side core.Side, snapshots []*core.TableSnapshot) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO snapshots (run_id, side, table_name, columns, row_count, captured_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, snap := range snapshots {
		if snap == nil {
			continue
		}
		cols, err := json.Marshal(snap.ColumnNames())
		if err != nil {
			return fmt.Errorf("failed to encode columns of %s: %w", snap.QualifiedName(), err)
		}
		if _, err := stmt.ExecContext(ctx, runID, string(side), snap.QualifiedName(), string(cols),
			snap.RowCount(), snap.CapturedAt().UTC()); err != nil {
			return fmt.Errorf("failed to save snapshot of %s: %w", snap.QualifiedName(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return nil
}

// GetSnapshots returns every snapshot of a run, source side first.
func (s *SQLiteStore) GetSnapshots(ctx context.Context, runID string) ([]*core.SnapshotRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, side, table_name, columns, row_count, captured_at
		FROM snapshots WHERE run_id = ?
		ORDER BY CASE side WHEN 'source' THEN 0 ELSE 1 END, table_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*core.SnapshotRecord
	for rows.Next() {
		var (
			rec  core.SnapshotRecord
			side string
			cols string
		)
		if err := rows.Scan(&rec.RunID, &side, &rec.Table, &cols, &rec.RowCount, &rec.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(cols), &rec.Columns); err != nil {
			return nil, fmt.Errorf("failed to decode columns of %s: %w", rec.Table, err)
		}
		rec.Side = core.Side(side)
		records = append(records, &rec)
	}
	return records, rows.Err()
}
