package core

import (
	"context"
	"time"
)

// Store defines the interface for run history and catalog snapshots.
type Store interface {
	Close() error

	// Run operations
	CreateRun(ctx context.Context, kind, source, target string) (*Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	CompleteRun(ctx context.Context, id string, status RunStatus, errMsg string) error
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// Table result operations
	RecordTableResult(ctx context.Context, result *TableResult) error
	GetTableResults(ctx context.Context, runID string) ([]*TableResult, error)

	// Snapshot operations
	SaveSnapshots(ctx context.Context, runID string, side Side, snapshots []*TableSnapshot) error
	GetSnapshots(ctx context.Context, runID string) ([]*SnapshotRecord, error)
}

// RunStatus represents the status of a transfer run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents one migrate or verify invocation.
type Run struct {
	ID          string
	Kind        string // "migrate" or "verify"
	Source      string // masked source descriptor
	Target      string // masked target descriptor
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// TableStatus is the outcome for one table within a run.
type TableStatus string

// Table status constants.
const (
	TableStatusOK       TableStatus = "ok"       // all rows copied and counts match
	TableStatusPartial  TableStatus = "partial"  // some rows failed to insert
	TableStatusSkipped  TableStatus = "skipped"  // no matching target table
	TableStatusFailed   TableStatus = "failed"   // the table could not be read or written
	TableStatusMismatch TableStatus = "mismatch" // row counts differ after the copy
)

// TableResult records what happened to one source table.
type TableResult struct {
	RunID       string
	SourceTable string
	TargetTable string
	SourceRows  int64
	Inserted    int64
	Failed      int64
	TargetRows  int64
	Status      TableStatus
	Error       string
	Duration    time.Duration

	// ColumnsChecked counts numeric columns whose MIN and MAX were compared.
	ColumnsChecked int
}

// Side names which connector a snapshot was taken from.
type Side string

// Snapshot sides.
const (
	SideSource Side = "source"
	SideTarget Side = "target"
)

// SnapshotRecord is a persisted TableSnapshot.
type SnapshotRecord struct {
	RunID      string
	Side       Side
	Table      string
	Columns    []string
	RowCount   int64
	CapturedAt time.Time
}
