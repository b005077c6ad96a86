package connector

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// Opener opens a database handle. It exists so tests can substitute sqlmock.
type Opener func(driverName, dsn string) (*sql.DB, error)

// ValueConverter turns a scanned driver value into a core.Value.
type ValueConverter func(src any, dbType string) (core.Value, error)

// Statement is one parameterized SQL statement.
type Statement struct {
	Query string
	Args  []any
}

// StatementBuilder builds the INSERT for one row. A returned error marks the
// row as failed without running anything.
type StatementBuilder func(row core.Row) (Statement, error)

// Base provides the connection lifecycle and row plumbing shared by the
// database/sql connectors. Embed it in concrete connector implementations.
//
// The live connection is a single *sql.Conn pinned from the pool so that
// session state such as the active database survives between calls.
type Base struct {
	Driver     string // database/sql driver name
	Descriptor string
	Mode       core.InsertMode
	Logger     *slog.Logger
	Open       Opener
	Convert    ValueConverter

	db   *sql.DB
	conn *sql.Conn
}

// NewBase returns a Base with defaults filled in.
// If logger is nil, a discard logger is used.
func NewBase(driver string, cfg Config, logger *slog.Logger) Base {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return Base{
		Driver:     driver,
		Descriptor: cfg.Descriptor,
		Mode:       cfg.InsertMode,
		Logger:     logger,
		Open:       sql.Open,
		Convert:    core.FromDriver,
	}
}

// IsConnected reports whether the live connection is open.
func (b *Base) IsConnected() bool {
	return b.conn != nil
}

// Conn returns the live connection, or nil when unconnected.
func (b *Base) Conn() *sql.Conn {
	return b.conn
}

// Connect opens the pool, pins one connection, and pings it.
// Calling Connect while connected is a no-op.
func (b *Base) Connect(ctx context.Context) error {
	if b.conn != nil {
		return nil
	}

	db, err := b.Open(b.Driver, b.Descriptor)
	if err != nil {
		return core.NewError(core.KindConnection, "Connect", "failed to open connection", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return core.NewError(core.KindConnection, "Connect", "failed to acquire connection", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return core.NewError(core.KindConnection, "Connect", "failed to ping server", err)
	}

	b.db = db
	b.conn = conn
	return nil
}

// Disconnect closes the pinned connection and the pool.
// Calling Disconnect while unconnected is a no-op.
func (b *Base) Disconnect() error {
	if b.conn == nil {
		return nil
	}
	b.Logger.Debug("closing database connection")

	connErr := b.conn.Close()
	dbErr := b.db.Close()
	b.conn = nil
	b.db = nil

	if connErr != nil {
		return core.NewError(core.KindConnection, "Disconnect", "failed to close connection", connErr)
	}
	if dbErr != nil {
		return core.NewError(core.KindConnection, "Disconnect", "failed to close connection pool", dbErr)
	}
	return nil
}

// TestConnection opens a separate handle, pings it, and closes it.
func (b *Base) TestConnection(ctx context.Context) error {
	db, err := b.Open(b.Driver, b.Descriptor)
	if err != nil {
		return core.NewError(core.KindConnection, "TestConnection", "failed to open connection", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return core.NewError(core.KindConnection, "TestConnection", "failed to ping server", err)
	}
	return nil
}

// RequireConnected returns a KindNotConnected error for op when unconnected.
func (b *Base) RequireConnected(op string) error {
	if b.conn == nil {
		return core.Errorf(core.KindNotConnected, op, "database connection not established")
	}
	return nil
}

// QueryStrings runs a query whose rows have a fixed number of string columns.
func (b *Base) QueryStrings(ctx context.Context, width int, query string, args ...any) ([][]string, error) {
	rows, err := b.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out [][]string
	for rows.Next() {
		rec := make([]string, width)
		dest := make([]any, width)
		for i := range rec {
			dest[i] = &rec[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// QueryInt64 runs a query returning a single integer.
func (b *Base) QueryInt64(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := b.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// QueryNullString runs a query returning a single, possibly NULL, string.
func (b *Base) QueryNullString(ctx context.Context, query string, args ...any) (string, bool, error) {
	var s sql.NullString
	if err := b.conn.QueryRowContext(ctx, query, args...).Scan(&s); err != nil {
		return "", false, err
	}
	return s.String, s.Valid, nil
}

// Exec runs a statement on the live connection.
func (b *Base) Exec(ctx context.Context, query string, args ...any) error {
	_, err := b.conn.ExecContext(ctx, query, args...)
	return err
}

// ReadRows runs query and converts every result row. SQL NULL becomes an
// explicit Null value; columns are never omitted.
func (b *Base) ReadRows(ctx context.Context, query string) ([]core.Row, error) {
	rows, err := b.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types := make([]string, len(cols))
	if cts, err := rows.ColumnTypes(); err == nil {
		for i, ct := range cts {
			types[i] = ct.DatabaseTypeName()
		}
	}

	out := []core.Row{}
	for rows.Next() {
		raw := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		vals := make([]core.Value, len(cols))
		for i, src := range raw {
			v, err := b.Convert(src, types[i])
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		out = append(out, core.NewRow(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertRows runs one statement per row according to b.Mode.
//
// InsertBestEffort logs and counts a failing row, then moves on; the error is
// nil unless the call itself could not proceed. InsertAtomic runs every row in
// one transaction and rolls back on the first failure.
func (b *Base) InsertRows(ctx context.Context, table string, rows []core.Row, build StatementBuilder) (core.InsertResult, error) {
	if b.Mode == core.InsertAtomic {
		return b.insertAtomic(ctx, table, rows, build)
	}

	res := core.InsertResult{Attempted: len(rows)}
	for i, row := range rows {
		if err := b.insertOne(ctx, b.conn, row, build); err != nil {
			b.Logger.Warn("row insert failed",
				slog.String("table", table),
				slog.Int("row", i),
				slog.Any("error", err))
			res.Failed++
			res.Errors = append(res.Errors, core.RowError{Index: i, Err: err})
			continue
		}
		res.Inserted++
	}

	b.Logger.Debug("insert finished",
		slog.String("table", table),
		slog.Int("inserted", res.Inserted),
		slog.Int("failed", res.Failed))
	return res, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (b *Base) insertOne(ctx context.Context, ex execer, row core.Row, build StatementBuilder) error {
	stmt, err := build(row)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, stmt.Query, stmt.Args...)
	return err
}

func (b *Base) insertAtomic(ctx context.Context, table string, rows []core.Row, build StatementBuilder) (core.InsertResult, error) {
	res := core.InsertResult{Attempted: len(rows)}

	tx, err := b.conn.BeginTx(ctx, nil)
	if err != nil {
		return res, core.NewError(core.KindExecution, "InsertData", "failed to begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for i, row := range rows {
		if err := b.insertOne(ctx, tx, row, build); err != nil {
			b.Logger.Warn("atomic insert rolled back",
				slog.String("table", table),
				slog.Int("row", i),
				slog.Any("error", err))
			res.Failed = len(rows)
			res.Errors = []core.RowError{{Index: i, Err: err}}
			return res, core.NewError(core.KindExecution, "InsertData", "batch rolled back", err)
		}
	}

	if err := tx.Commit(); err != nil {
		res.Failed = len(rows)
		return res, core.NewError(core.KindExecution, "InsertData", "failed to commit batch", err)
	}
	committed = true
	res.Inserted = len(rows)

	b.Logger.Debug("insert finished",
		slog.String("table", table),
		slog.Int("inserted", res.Inserted))
	return res, nil
}
