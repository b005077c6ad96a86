package mssql

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlbridge/pkg/connector"
	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// TableData reads every row of table. The slice is empty, never nil, on failure.
func (c *Connector) TableData(ctx context.Context, table string) ([]core.Row, error) {
	const op = "TableData"

	ref, err := c.resolve(ctx, op, table)
	if err != nil {
		return []core.Row{}, err
	}

	rows, err := c.ReadRows(ctx, "SELECT * FROM "+ref.quoted())
	if err != nil {
		return []core.Row{}, c.fail(op, ref, core.NewError(core.KindExecution, op, "failed to read rows", err))
	}
	return rows, nil
}

// InsertData inserts rows into table, one parameterized INSERT per row built
// from that row's own columns. Column names must belong to the table's live
// column list.
func (c *Connector) InsertData(ctx context.Context, table string, rows []core.Row) (core.InsertResult, error) {
	const op = "InsertData"

	ref, err := c.resolve(ctx, op, table)
	if err != nil {
		return core.InsertResult{Attempted: len(rows)}, err
	}
	if len(rows) == 0 {
		return core.InsertResult{}, nil
	}

	columns, err := c.columns(ctx, ref)
	if err != nil {
		return core.InsertResult{Attempted: len(rows)},
			c.fail(op, ref, core.NewError(core.KindExecution, op, "failed to query column metadata", err))
	}
	known := make(map[string]bool, len(columns))
	for _, col := range columns {
		known[col] = true
	}

	build := func(row core.Row) (connector.Statement, error) {
		return buildInsert(ref, known, row)
	}
	return c.InsertRows(ctx, ref.String(), rows, build)
}

// buildInsert renders INSERT INTO [s].[t] ([a], [b]) VALUES (@p1, @p2).
// A row with no columns inserts the table defaults.
func buildInsert(ref tableRef, known map[string]bool, row core.Row) (connector.Statement, error) {
	cols := row.Columns()
	if len(cols) == 0 {
		return connector.Statement{Query: "INSERT INTO " + ref.quoted() + " DEFAULT VALUES"}, nil
	}

	quoted := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, col := range cols {
		if !known[col] {
			return connector.Statement{}, core.Errorf(core.KindValidation, "InsertData", "column %q is not a column of %s", col, ref)
		}
		quoted[i] = quoteIdent(col)
		params[i] = fmt.Sprintf("@p%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ref.quoted(), strings.Join(quoted, ", "), strings.Join(params, ", "))
	return connector.Statement{Query: query, Args: row.Args()}, nil
}
