package mariadb

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
	"github.com/leapstack-labs/sqlbridge/pkg/ident"
)

const (
	listTablesQuery = "SELECT TABLE_SCHEMA, TABLE_NAME FROM information_schema.TABLES WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = ? ORDER BY TABLE_SCHEMA, TABLE_NAME"

	listColumnsQuery = "SELECT COLUMN_NAME FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION"

	activeDatabaseQuery = "SELECT DATABASE()"
)

// tableRef is a table confirmed against the live catalog.
type tableRef struct {
	database string
	name     string
}

// quoted returns `database`.`name` for interpolation into SQL.
func (t tableRef) quoted() string {
	return quoteIdent(t.database) + "." + quoteIdent(t.name)
}

func (t tableRef) String() string {
	return t.database + "." + t.name
}

// TableNames lists base tables of the active database by flat name.
// Returns an empty slice when unconnected, when no database is active, or
// when the catalog query fails.
func (c *Connector) TableNames(ctx context.Context) []string {
	if !c.IsConnected() {
		c.Logger.Warn("TableNames called while not connected")
		return []string{}
	}

	db, ok, err := c.QueryNullString(ctx, activeDatabaseQuery)
	if err != nil {
		c.Logger.Error("failed to read active database", slog.Any("error", err))
		return []string{}
	}
	if !ok {
		c.Logger.Warn("TableNames called with no active database")
		return []string{}
	}

	tables, err := c.listTables(ctx, db)
	if err != nil {
		c.Logger.Error("failed to list tables", slog.String("database", db), slog.Any("error", err))
		return []string{}
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.name
	}
	return names
}

// TableStructure returns a snapshot of table with its ordered column names
// and a live row count. The snapshot is nil on any failure.
func (c *Connector) TableStructure(ctx context.Context, table string) (*core.TableSnapshot, error) {
	const op = "TableStructure"

	ref, err := c.resolve(ctx, op, table)
	if err != nil {
		return nil, err
	}

	columns, err := c.columns(ctx, ref)
	if err != nil {
		return nil, c.fail(op, ref, core.NewError(core.KindExecution, op, "failed to query column metadata", err))
	}
	if len(columns) == 0 {
		return nil, c.fail(op, ref, core.Errorf(core.KindCatalogMismatch, op, "table %s has no visible columns", ref))
	}

	count, err := c.QueryInt64(ctx, "SELECT COUNT(*) FROM "+ref.quoted())
	if err != nil {
		return nil, c.fail(op, ref, core.NewError(core.KindExecution, op, "failed to count rows", err))
	}

	return core.NewTableSnapshot(ref.database, ref.name, columns, count), nil
}

func (c *Connector) listTables(ctx context.Context, database string) ([]tableRef, error) {
	recs, err := c.QueryStrings(ctx, 2, listTablesQuery, database)
	if err != nil {
		return nil, err
	}
	tables := make([]tableRef, len(recs))
	for i, r := range recs {
		tables[i] = tableRef{database: r[0], name: r[1]}
	}
	return tables, nil
}

func (c *Connector) columns(ctx context.Context, ref tableRef) ([]string, error) {
	recs, err := c.QueryStrings(ctx, 1, listColumnsQuery, ref.database, ref.name)
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(recs))
	for i, r := range recs {
		cols[i] = r[0]
	}
	return cols, nil
}

// resolve parses table, defaults the database to the active one, and confirms
// the result against a catalog enumeration fetched now.
func (c *Connector) resolve(ctx context.Context, op, table string) (tableRef, error) {
	if err := c.RequireConnected(op); err != nil {
		c.Logger.Warn(op+" called while not connected", slog.String("table", table))
		return tableRef{}, err
	}

	ref := tableRef{name: ident.ExtractBareName(table)}
	if db, ok := ident.ExtractQualifier(table); ok {
		ref.database = db
	} else {
		db, ok, err := c.QueryNullString(ctx, activeDatabaseQuery)
		if err != nil {
			return tableRef{}, c.fail(op, ref, core.NewError(core.KindExecution, op, "failed to read active database", err))
		}
		if !ok {
			return tableRef{}, c.fail(op, ref, core.Errorf(core.KindValidation, op, "no active database for table %q", table))
		}
		ref.database = db
	}
	if strings.TrimSpace(ref.name) == "" || strings.TrimSpace(ref.database) == "" {
		return tableRef{}, c.fail(op, ref, core.Errorf(core.KindValidation, op, "invalid table name %q", table))
	}

	tables, err := c.listTables(ctx, ref.database)
	if err != nil {
		return tableRef{}, c.fail(op, ref, core.NewError(core.KindExecution, op, "failed to read catalog", err))
	}
	for _, t := range tables {
		if t == ref {
			return ref, nil
		}
	}

	return tableRef{}, c.fail(op, ref, core.NewError(core.KindCatalogMismatch, op,
		fmt.Sprintf("table %s not found in catalog", ref), nil))
}

// fail logs err once and returns it.
func (c *Connector) fail(op string, ref tableRef, err error) error {
	c.Logger.Error(op+" failed",
		slog.String("table", ref.String()),
		slog.Int("mysql_code", errorCode(err)),
		slog.Any("error", err))
	return err
}
