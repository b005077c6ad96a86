package mariadb

import (
	"context"
	"strings"

	"github.com/leapstack-labs/sqlbridge/pkg/connector"
	"github.com/leapstack-labs/sqlbridge/pkg/core"
	"github.com/leapstack-labs/sqlbridge/pkg/ident"
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
// from that row's own columns. Column names must be legal flat identifiers.
func (c *Connector) InsertData(ctx context.Context, table string, rows []core.Row) (core.InsertResult, error) {
	const op = "InsertData"

	ref, err := c.resolve(ctx, op, table)
	if err != nil {
		return core.InsertResult{Attempted: len(rows)}, err
	}
	if len(rows) == 0 {
		return core.InsertResult{}, nil
	}

	build := func(row core.Row) (connector.Statement, error) {
		return buildInsert(ref, row)
	}
	return c.InsertRows(ctx, ref.String(), rows, build)
}

// buildInsert renders INSERT INTO `db`.`t` (`a`, `b`) VALUES (?, ?).
// A row with no columns inserts the table defaults.
func buildInsert(ref tableRef, row core.Row) (connector.Statement, error) {
	cols := row.Columns()
	quoted := make([]string, len(cols))
	for i, col := range cols {
		if !ident.IsValidFlat(col) {
			return connector.Statement{}, core.Errorf(core.KindValidation, "InsertData", "illegal column name %q", col)
		}
		quoted[i] = quoteIdent(col)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := "INSERT INTO " + ref.quoted() + " (" + strings.Join(quoted, ", ") + ") VALUES (" + placeholders + ")"
	return connector.Statement{Query: query, Args: row.Args()}, nil
}
