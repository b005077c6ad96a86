package core

import "context"

// SecretMask replaces secrets in descriptors returned by ConnectionString.
const SecretMask = "****"

// NotConfigured is returned by ConnectionString for an empty descriptor.
const NotConfigured = "<not configured>"

// Connector defines the interface that both database connectors implement.
//
// A connector owns at most one live connection. It is Unconnected until
// Connect succeeds and returns to Unconnected after Disconnect. Every
// operation other than Connect, TestConnection and ConnectionString needs a
// live connection and reports KindNotConnected (or its empty value) without one.
//
// Connectors are not safe for concurrent use.
type Connector interface {
	// Connect opens the live connection. Calling it while connected is a no-op.
	Connect(ctx context.Context) error

	// Disconnect releases the live connection. Calling it while unconnected is a no-op.
	Disconnect() error

	// TestConnection opens and closes a throwaway connection.
	// The connector's own state is not touched.
	TestConnection(ctx context.Context) error

	// ConnectionString returns the descriptor with secrets masked.
	ConnectionString() string

	// TableNames lists base tables ordered by qualifier then bare name.
	// It returns an empty slice when unconnected or when the catalog query fails.
	TableNames(ctx context.Context) []string

	// TableStructure returns a snapshot of a table confirmed against the live catalog.
	// The snapshot is nil on any failure.
	TableStructure(ctx context.Context, table string) (*TableSnapshot, error)

	// TableData reads every row of a table confirmed against the live catalog.
	// The slice is empty, never nil, on failure.
	TableData(ctx context.Context, table string) ([]Row, error)

	// InsertData inserts rows into a table confirmed against the live catalog.
	// Each row is inserted with its own column set.
	InsertData(ctx context.Context, table string, rows []Row) (InsertResult, error)

	// DatabaseExists reports whether a database is visible on the server.
	DatabaseExists(ctx context.Context, name string) (bool, error)

	// CreateDatabase creates a database.
	CreateDatabase(ctx context.Context, name string) error

	// UseDatabase makes name the active database of the live connection.
	UseDatabase(ctx context.Context, name string) error

	// DeleteDatabase drops a database.
	DeleteDatabase(ctx context.Context, name string) error
}

// InsertMode selects how InsertData treats a failing row.
type InsertMode int

const (
	// InsertBestEffort inserts row by row; a failing row is logged and skipped.
	InsertBestEffort InsertMode = iota
	// InsertAtomic inserts all rows in one transaction; any failure rolls back the batch.
	InsertAtomic
)

// String returns the config name of the mode.
func (m InsertMode) String() string {
	switch m {
	case InsertBestEffort:
		return "best_effort"
	case InsertAtomic:
		return "atomic"
	default:
		return "unknown"
	}
}

// ParseInsertMode converts a config name to an InsertMode.
// Returns InsertBestEffort and false for unknown names.
func ParseInsertMode(s string) (InsertMode, bool) {
	switch s {
	case "best_effort", "":
		return InsertBestEffort, true
	case "atomic":
		return InsertAtomic, true
	default:
		return InsertBestEffort, false
	}
}

// RowError records why a single row was not inserted.
type RowError struct {
	Index int // position of the row in the input batch
	Err   error
}

// InsertResult reports the outcome of InsertData.
type InsertResult struct {
	Attempted int
	Inserted  int
	Failed    int
	Errors    []RowError
}

// Complete reports whether every attempted row was inserted.
func (r InsertResult) Complete() bool {
	return r.Failed == 0 && r.Inserted == r.Attempted
}
