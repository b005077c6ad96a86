package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbridge/internal/cli/output"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables <source|target>",
		Short: "List the base tables of one side",
		Example: `  # Qualified names on SQL Server
  sqlbridge tables source

  # Tables of the configured target database
  sqlbridge tables target --output json`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: sides,
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

			names := conn.TableNames(cmd.Context())

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(names)
			}
			if len(names) == 0 {
				r.Println("(0 tables)")
				return nil
			}
			rows := make([][]any, len(names))
			for i, name := range names {
				rows[i] = []any{i + 1, name}
			}
			r.Table([]string{"#", "table"}, rows)
			return nil
		},
	}
}
