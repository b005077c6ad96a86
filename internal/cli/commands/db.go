package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbridge/internal/cli/output"
)

// NewDBCommand creates the db command group.
func NewDBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect and manage databases on one side",
		Long: `Check, create, select, or drop a database. Commands act on the target
unless --on source is given. SQL Server never creates or drops databases.`,
	}
	cmd.PersistentFlags().String("on", SideTarget, "Side to act on (source|target)")
	_ = cmd.RegisterFlagCompletionFunc("on", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return sides, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(newDBExistsCommand())
	cmd.AddCommand(newDBCreateCommand())
	cmd.AddCommand(newDBUseCommand())
	cmd.AddCommand(newDBDropCommand())
	return cmd
}

func dbSide(cmd *cobra.Command) string {
	side, _ := cmd.Flags().GetString("on")
	return side
}

func newDBExistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <name>",
		Short: "Report whether a database exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			conn, cleanup, err := cc.Open(cmd.Context(), dbSide(cmd))
			if err != nil {
				return err
			}
			defer cleanup()

			exists, err := conn.DatabaseExists(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{"database": args[0], "exists": exists})
			}
			if exists {
				r.Printf("database %s exists\n", args[0])
			} else {
				r.Printf("database %s does not exist\n", args[0])
			}
			return nil
		},
	}
}

func newDBCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a database if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			conn, cleanup, err := cc.Open(cmd.Context(), dbSide(cmd))
			if err != nil {
				return err
			}
			defer cleanup()

			if err := conn.CreateDatabase(cmd.Context(), args[0]); err != nil {
				return err
			}
			cc.Renderer.Printf("database %s created\n", args[0])
			return nil
		},
	}
}

func newDBUseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Check that a database can be selected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			conn, cleanup, err := cc.Open(cmd.Context(), dbSide(cmd))
			if err != nil {
				return err
			}
			defer cleanup()

			if err := conn.UseDatabase(cmd.Context(), args[0]); err != nil {
				return err
			}
			cc.Renderer.Printf("database %s selected\n", args[0])
			return nil
		},
	}
}

func newDBDropCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop <name>",
		Short: "Drop a database and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if force, _ := cmd.Flags().GetBool("force"); !force {
				return fmt.Errorf("refusing to drop %s without --force", args[0])
			}
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			conn, cleanup, err := cc.Open(cmd.Context(), dbSide(cmd))
			if err != nil {
				return err
			}
			defer cleanup()

			if err := conn.DeleteDatabase(cmd.Context(), args[0]); err != nil {
				return err
			}
			cc.Renderer.Printf("database %s dropped\n", args[0])
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Confirm the drop")
	return cmd
}
