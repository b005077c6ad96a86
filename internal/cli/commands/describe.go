package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbridge/internal/cli/output"
)

type describeOutput struct {
	Table      string    `json:"table"`
	Qualifier  string    `json:"qualifier,omitempty"`
	Columns    []string  `json:"columns"`
	RowCount   int64     `json:"row_count"`
	CapturedAt time.Time `json:"captured_at"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <source|target> <table>",
		Short: "Show the columns and row count of a table",
		Example: `  sqlbridge describe source Sales.Currency
  sqlbridge describe target Sales_Currency`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeSides,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			conn, cleanup, err := cc.Connect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			snap, err := conn.TableStructure(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(describeOutput{
					Table:      snap.QualifiedName(),
					Qualifier:  snap.Qualifier(),
					Columns:    snap.ColumnNames(),
					RowCount:   snap.RowCount(),
					CapturedAt: snap.CapturedAt(),
				})
			}

			if r.EffectiveMode() == output.ModeMarkdown {
				r.Println(output.FormatHeader(1, snap.QualifiedName()))
				r.Println("")
			} else {
				r.Printf("Table: %s\n", snap.QualifiedName())
			}
			rows := make([][]any, 0, len(snap.ColumnNames()))
			for i, col := range snap.ColumnNames() {
				rows = append(rows, []any{i + 1, col})
			}
			r.Table([]string{"#", "column"}, rows)
			r.Printf("(%d rows)\n", snap.RowCount())
			return nil
		},
	}
}
