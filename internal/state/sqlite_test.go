package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenAndMigrate(filepath.Join(t.TempDir(), "state.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	assert.Equal(t, ":memory:", store.Path())
	require.NoError(t, store.Close())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	_, err := store.CreateRun(ctx, "migrate", "src", "dst")
	assert.EqualError(t, err, "database not opened")
	assert.EqualError(t, store.Migrate(), "database not opened")
	_, err = store.GetMigrationVersion()
	assert.Error(t, err)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	// a second run is a no-op
	require.NoError(t, store.Migrate())

	for _, table := range []string{"runs", "table_results", "snapshots"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s should exist", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	tests := []struct {
		name   string
		status core.RunStatus
		errMsg string
	}{
		{"completed", core.RunStatusCompleted, ""},
		{"failed", core.RunStatusFailed, "source unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			ctx := context.Background()

			run, err := store.CreateRun(ctx, "migrate", "sqlserver://sa:****@db", "app:****@tcp(db)/")
			require.NoError(t, err)
			assert.NotEmpty(t, run.ID)
			assert.Equal(t, core.RunStatusRunning, run.Status)

			got, err := store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, "migrate", got.Kind)
			assert.Equal(t, "sqlserver://sa:****@db", got.Source)
			assert.Nil(t, got.CompletedAt)
			assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Second)

			require.NoError(t, store.CompleteRun(ctx, run.ID, tt.status, tt.errMsg))

			got, err = store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.errMsg, got.Error)
			require.NotNil(t, got.CompletedAt)
		})
	}
}

func TestSQLiteStore_GetRunNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun(context.Background(), "missing")
	assert.EqualError(t, err, "run not found: missing")
	assert.Error(t, store.CompleteRun(context.Background(), "missing", core.RunStatusFailed, ""))
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ids := map[string]bool{}
	for range 3 {
		run, err := store.CreateRun(ctx, "verify", "a", "b")
		require.NoError(t, err)
		ids[run.ID] = true
	}

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, r := range all {
		assert.True(t, ids[r.ID])
	}
	assert.False(t, all[0].StartedAt.Before(all[2].StartedAt), "newest first")

	limited, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLiteStore_TableResults(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "migrate", "a", "b")
	require.NoError(t, err)

	results := []*core.TableResult{
		{RunID: run.ID, SourceTable: "Sales.Currency", TargetTable: "Sales_Currency",
			SourceRows: 105, Inserted: 105, TargetRows: 105, Status: core.TableStatusOK, Duration: 1500 * time.Millisecond,
			ColumnsChecked: 3},
		{RunID: run.ID, SourceTable: "dbo.ErrorLog", TargetTable: "dbo_ErrorLog",
			SourceRows: 3, Inserted: 2, Failed: 1, TargetRows: 2, Status: core.TableStatusPartial, Error: "1 row failed"},
	}
	for _, r := range results {
		require.NoError(t, store.RecordTableResult(ctx, r))
	}

	// re-recording replaces the earlier row
	results[1].Status = core.TableStatusMismatch
	require.NoError(t, store.RecordTableResult(ctx, results[1]))

	got, err := store.GetTableResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Sales.Currency", got[0].SourceTable)
	assert.Equal(t, core.TableStatusOK, got[0].Status)
	assert.Equal(t, 1500*time.Millisecond, got[0].Duration)
	assert.Empty(t, got[0].Error)
	assert.Equal(t, 3, got[0].ColumnsChecked)

	assert.Equal(t, "dbo_ErrorLog", got[1].TargetTable)
	assert.Equal(t, core.TableStatusMismatch, got[1].Status)
	assert.Equal(t, int64(1), got[1].Failed)
	assert.Equal(t, "1 row failed", got[1].Error)

	none, err := store.GetTableResults(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_Snapshots(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "migrate", "a", "b")
	require.NoError(t, err)

	src := []*core.TableSnapshot{
		core.NewTableSnapshot("Sales", "Currency", []string{"CurrencyCode", "Name"}, 105),
	}
	dst := []*core.TableSnapshot{
		core.NewTableSnapshot("warehouse", "Sales_Currency", []string{"CurrencyCode", "Name"}, 104),
		nil,
	}
	require.NoError(t, store.SaveSnapshots(ctx, run.ID, core.SideTarget, dst))
	require.NoError(t, store.SaveSnapshots(ctx, run.ID, core.SideSource, src))
	require.NoError(t, store.SaveSnapshots(ctx, run.ID, core.SideSource, nil))

	got, err := store.GetSnapshots(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, core.SideSource, got[0].Side)
	assert.Equal(t, "Sales.Currency", got[0].Table)
	assert.Equal(t, []string{"CurrencyCode", "Name"}, got[0].Columns)
	assert.Equal(t, int64(105), got[0].RowCount)
	assert.WithinDuration(t, src[0].CapturedAt(), got[0].CapturedAt, time.Second)

	assert.Equal(t, core.SideTarget, got[1].Side)
	assert.Equal(t, "warehouse.Sales_Currency", got[1].Table)
	assert.Equal(t, int64(104), got[1].RowCount)
}
