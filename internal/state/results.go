package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// RecordTableResult stores the outcome for one table, replacing any
// earlier result for the same run and source table.
func (s *SQLiteStore) RecordTableResult(ctx context.Context, r *core.TableResult) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO table_results
			(run_id, source_table, target_table, source_rows, inserted, failed, target_rows, status, error, duration_ms, columns_checked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, source_table) DO UPDATE SET
			target_table = excluded.target_table,
			source_rows  = excluded.source_rows,
			inserted     = excluded.inserted,
			failed       = excluded.failed,
			target_rows  = excluded.target_rows,
			status       = excluded.status,
			error        = excluded.error,
			duration_ms  = excluded.duration_ms,
			columns_checked = excluded.columns_checked`,
		r.RunID, r.SourceTable, r.TargetTable, r.SourceRows, r.Inserted, r.Failed, r.TargetRows,
		string(r.Status), nullString(r.Error), r.Duration.Milliseconds(), r.ColumnsChecked,
	)
	if err != nil {
		return fmt.Errorf("failed to record table result: %w", err)
	}
	return nil
}

// GetTableResults returns every table result of a run ordered by source table.
func (s *SQLiteStore) GetTableResults(ctx context.Context, runID string) ([]*core.TableResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, source_table, target_table, source_rows, inserted, failed, target_rows, status, error, duration_ms,
			columns_checked
		FROM table_results WHERE run_id = ? ORDER BY source_table`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get table results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*core.TableResult
	for rows.Next() {
		var (
			r        core.TableResult
			status   string
			errMsg   sql.NullString
			duration int64
		)
		if err := rows.Scan(&r.RunID, &r.SourceTable, &r.TargetTable, &r.SourceRows, &r.Inserted,
			&r.Failed, &r.TargetRows, &status, &errMsg, &duration, &r.ColumnsChecked); err != nil {
			return nil, fmt.Errorf("failed to scan table result: %w", err)
		}
		r.Status = core.TableStatus(status)
		r.Error = errMsg.String
		r.Duration = time.Duration(duration) * time.Millisecond
		results = append(results, &r)
	}
	return results, rows.Err()
}
