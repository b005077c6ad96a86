package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbridge/internal/cli/output"
	"github.com/leapstack-labs/sqlbridge/internal/transfer"
	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy every source table into its flat-named target table",
		Long: `Copy rows from each selected source table into the target table whose
name is the flattened source name (Sales.Currency -> Sales_Currency).

Tables without a matching target table are skipped and reported. After each
copy the target row count is compared with the source snapshot.`,
		Example: `  # Copy everything with four parallel connection pairs
  sqlbridge migrate --workers 4

  # Copy two tables, all-or-nothing per table
  sqlbridge migrate --tables Sales.Currency,dbo.ErrorLog --insert-mode atomic`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTransfer(cmd, (*transfer.Migrator).Migrate)
		},
	}
	addTransferFlags(cmd)
	cmd.Flags().String("insert-mode", "", "Insert mode (best_effort|atomic)")
	_ = cmd.RegisterFlagCompletionFunc("insert-mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{core.InsertBestEffort.String(), core.InsertAtomic.String()}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare source and target row counts without copying",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTransfer(cmd, (*transfer.Migrator).Verify)
		},
	}
	addTransferFlags(cmd)
	return cmd
}

func addTransferFlags(cmd *cobra.Command) {
	cmd.Flags().Int("workers", 1, "Parallel source/target connection pairs")
	cmd.Flags().StringSlice("tables", nil, "Source tables to include (default: all)")
	cmd.Flags().Bool("no-state", false, "Do not record the run in the state database")
}

type runFunc func(m *transfer.Migrator, ctx context.Context) (*transfer.Report, error)

func runTransfer(cmd *cobra.Command, fn runFunc) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if err := cc.Cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := transfer.Config{
		Source:         transfer.FromRegistry(cc.Cfg.SourceConnector(), cc.Logger),
		Target:         transfer.FromRegistry(cc.Cfg.TargetConnector(), cc.Logger),
		TargetDatabase: cc.Cfg.Target.Database,
		Tables:         cc.Cfg.Transfer.Tables,
		Workers:        cc.Cfg.Transfer.Workers,
		Logger:         cc.Logger,
	}

	if noState, _ := cmd.Flags().GetBool("no-state"); !noState {
		store, err := cc.OpenStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		cfg.Store = store
	}

	m, err := transfer.New(cfg)
	if err != nil {
		return err
	}

	report, runErr := fn(m, cmd.Context())
	if report != nil {
		if err := renderReport(cc.Renderer, report); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	if bad := len(report.Results) - report.Count(core.TableStatusOK) - report.Count(core.TableStatusSkipped); bad > 0 {
		return fmt.Errorf("%d of %d tables did not %s cleanly", bad, len(report.Results), report.Kind)
	}
	return nil
}

type reportOutput struct {
	RunID    string        `json:"run_id,omitempty"`
	Kind     string        `json:"kind"`
	Started  time.Time     `json:"started_at"`
	Duration string        `json:"duration"`
	Summary  string        `json:"summary"`
	Tables   []tableOutput `json:"tables"`
}

type tableOutput struct {
	Source         string `json:"source"`
	Target         string `json:"target,omitempty"`
	Status         string `json:"status"`
	SourceRows     int64  `json:"source_rows"`
	Inserted       int64  `json:"inserted"`
	Failed         int64  `json:"failed"`
	TargetRows     int64  `json:"target_rows"`
	ColumnsChecked int    `json:"columns_checked,omitempty"`
	Duration       string `json:"duration"`
	Error          string `json:"error,omitempty"`
}

func toTableOutput(res *core.TableResult) tableOutput {
	return tableOutput{
		Source:         res.SourceTable,
		Target:         res.TargetTable,
		Status:         string(res.Status),
		SourceRows:     res.SourceRows,
		Inserted:       res.Inserted,
		Failed:         res.Failed,
		TargetRows:     res.TargetRows,
		ColumnsChecked: res.ColumnsChecked,
		Duration:       res.Duration.Round(time.Millisecond).String(),
		Error:          res.Error,
	}
}

func renderReport(r *output.Renderer, report *transfer.Report) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := reportOutput{
			RunID:    report.RunID,
			Kind:     report.Kind,
			Started:  report.StartedAt,
			Duration: report.Duration.Round(time.Millisecond).String(),
			Summary:  report.Summary(),
			Tables:   make([]tableOutput, 0, len(report.Results)),
		}
		for _, res := range report.Results {
			out.Tables = append(out.Tables, toTableOutput(res))
		}
		return r.JSON(out)
	}

	renderResults(r, report.Results)
	if report.RunID != "" {
		r.Printf("run %s: %s in %s\n", report.RunID, report.Summary(), report.Duration.Round(time.Millisecond))
	} else {
		r.Printf("%s in %s\n", report.Summary(), report.Duration.Round(time.Millisecond))
	}
	return nil
}

func renderResults(r *output.Renderer, results []*core.TableResult) {
	rows := make([][]any, 0, len(results))
	for _, res := range results {
		t := toTableOutput(res)
		rows = append(rows, []any{t.Source, t.Target, t.Status, t.SourceRows, t.Inserted, t.Failed, t.TargetRows, t.Duration, t.Error})
	}
	r.Table([]string{"source", "target", "status", "source rows", "inserted", "failed", "target rows", "took", "error"}, rows)
}
