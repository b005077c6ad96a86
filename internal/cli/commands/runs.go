package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbridge/internal/cli/output"
	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

type runOutput struct {
	ID          string        `json:"id"`
	Kind        string        `json:"kind"`
	Status      string        `json:"status"`
	Source      string        `json:"source"`
	Target      string        `json:"target"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Error       string        `json:"error,omitempty"`
	Tables      []tableOutput `json:"tables,omitempty"`
}

func toRunOutput(run *core.Run) runOutput {
	return runOutput{
		ID:          run.ID,
		Kind:        run.Kind,
		Status:      string(run.Status),
		Source:      run.Source,
		Target:      run.Target,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Error:       run.Error,
	}
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show recorded migrate and verify runs",
		Long: `Without an argument, list the most recent runs. With a run ID, show the
per-table results and catalog snapshots recorded for that run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				return showRun(cmd, cc, store, args[0])
			}

			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				out := make([]runOutput, 0, len(runs))
				for _, run := range runs {
					out = append(out, toRunOutput(run))
				}
				return r.JSON(out)
			}
			if len(runs) == 0 {
				r.Println("(0 runs)")
				return nil
			}
			rows := make([][]any, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []any{run.ID, run.Kind, run.Status, run.StartedAt.Local().Format(time.DateTime), runDuration(run), run.Error})
			}
			r.Table([]string{"id", "kind", "status", "started", "took", "error"}, rows)
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func showRun(cmd *cobra.Command, cc *CommandContext, store core.Store, id string) error {
	ctx := cmd.Context()
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}
	results, err := store.GetTableResults(ctx, id)
	if err != nil {
		return err
	}
	snapshots, err := store.GetSnapshots(ctx, id)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		out := toRunOutput(run)
		for _, res := range results {
			out.Tables = append(out.Tables, toTableOutput(res))
		}
		return r.JSON(out)
	}

	r.Printf("Run %s (%s): %s\n", run.ID, run.Kind, run.Status)
	r.Printf("Source: %s\nTarget: %s\n", run.Source, run.Target)
	if run.Error != "" {
		r.Printf("Error: %s\n", run.Error)
	}
	r.Println("")
	renderResults(r, results)

	if len(snapshots) > 0 {
		r.Println("")
		rows := make([][]any, 0, len(snapshots))
		for _, snap := range snapshots {
			rows = append(rows, []any{snap.Side, snap.Table, len(snap.Columns), snap.RowCount})
		}
		r.Table([]string{"side", "table", "columns", "rows"}, rows)
	}
	return nil
}

func runDuration(run *core.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
