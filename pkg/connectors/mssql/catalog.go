package mssql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
	"github.com/leapstack-labs/sqlbridge/pkg/ident"
)

const (
	listTablesQuery = `SELECT TABLE_SCHEMA, TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_SCHEMA, TABLE_NAME`

	listColumnsQuery = `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2 ORDER BY ORDINAL_POSITION`
)

// tableRef is a table confirmed against the live catalog.
type tableRef struct {
	schema string
	name   string
}

// quoted returns [schema].[name] for interpolation into SQL.
func (t tableRef) quoted() string {
	return quoteIdent(t.schema) + "." + quoteIdent(t.name)
}

func (t tableRef) String() string {
	return t.schema + "." + t.name
}

// TableNames lists base tables as schema.table, ordered by schema then name.
// Returns an empty slice when unconnected or when the catalog query fails.
func (c *Connector) TableNames(ctx context.Context) []string {
	if !c.IsConnected() {
		c.Logger.Warn("TableNames called while not connected")
		return []string{}
	}

	tables, err := c.listTables(ctx)
	if err != nil {
		c.Logger.Error("failed to list tables", slog.Any("error", err))
		return []string{}
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.String()
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

	count, err := c.QueryInt64(ctx, "SELECT COUNT_BIG(*) FROM "+ref.quoted())
	if err != nil {
		return nil, c.fail(op, ref, core.NewError(core.KindExecution, op, "failed to count rows", err))
	}

	return core.NewTableSnapshot(ref.schema, ref.name, columns, count), nil
}

func (c *Connector) listTables(ctx context.Context) ([]tableRef, error) {
	recs, err := c.QueryStrings(ctx, 2, listTablesQuery)
	if err != nil {
		return nil, err
	}
	tables := make([]tableRef, len(recs))
	for i, r := range recs {
		tables[i] = tableRef{schema: r[0], name: r[1]}
	}
	return tables, nil
}

func (c *Connector) columns(ctx context.Context, ref tableRef) ([]string, error) {
	recs, err := c.QueryStrings(ctx, 1, listColumnsQuery, ref.schema, ref.name)
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(recs))
	for i, r := range recs {
		cols[i] = r[0]
	}
	return cols, nil
}

// resolve parses table, applies the default schema, and confirms the result
// against a catalog enumeration fetched now. Every table-targeted operation
// goes through resolve before any identifier reaches SQL.
func (c *Connector) resolve(ctx context.Context, op, table string) (tableRef, error) {
	if err := c.RequireConnected(op); err != nil {
		c.Logger.Warn(op+" called while not connected", slog.String("table", table))
		return tableRef{}, err
	}

	ref := tableRef{schema: DefaultSchema, name: ident.ExtractBareName(table)}
	if schema, ok := ident.ExtractQualifier(table); ok {
		ref.schema = schema
	}
	if strings.TrimSpace(ref.name) == "" || strings.TrimSpace(ref.schema) == "" {
		err := core.Errorf(core.KindValidation, op, "invalid table name %q", table)
		c.Logger.Error(op+" failed", slog.Any("error", err))
		return tableRef{}, err
	}

	tables, err := c.listTables(ctx)
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
	c.Logger.Error(op+" failed", slog.String("table", ref.String()), slog.Any("error", err))
	return err
}
