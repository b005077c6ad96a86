package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbridge/internal/cli/output"
)

// versioner is implemented by connectors that can report the server version.
type versioner interface {
	ServerVersion(ctx context.Context) (string, error)
}

type pingResult struct {
	Side       string `json:"side"`
	Type       string `json:"type"`
	Descriptor string `json:"descriptor"`
	OK         bool   `json:"ok"`
	Version    string `json:"version,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NewPingCommand creates the ping command.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test the source and target connections",
		Long: `Open a throwaway connection to the source and the target, then report
each server's version. Descriptors are printed with their secrets masked.`,
		Args: cobra.NoArgs,
		RunE: runPing,
	}
}

func runPing(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	results := make([]pingResult, 0, len(sides))
	failures := 0
	for _, side := range sides {
		res := ping(ctx, cc, side)
		if !res.OK {
			failures++
		}
		results = append(results, res)
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(results); err != nil {
			return err
		}
	} else {
		rows := make([][]any, 0, len(results))
		for _, res := range results {
			status := "ok"
			if !res.OK {
				status = "error: " + res.Error
			}
			rows = append(rows, []any{res.Side, res.Type, res.Descriptor, status, res.Version})
		}
		r.Table([]string{"side", "type", "descriptor", "status", "version"}, rows)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d connections failed", failures, len(sides))
	}
	return nil
}

func ping(ctx context.Context, cc *CommandContext, side string) pingResult {
	_, ep, _ := cc.endpoint(side)
	res := pingResult{Side: side, Type: ep.Type}

	conn, err := cc.NewConnector(side)
	if err != nil {
		res.Descriptor = "-"
		res.Error = err.Error()
		return res
	}
	res.Descriptor = conn.ConnectionString()

	if err := conn.TestConnection(ctx); err != nil {
		res.Error = err.Error()
		return res
	}
	res.OK = true

	if v, ok := conn.(versioner); ok {
		if err := conn.Connect(ctx); err == nil {
			res.Version, _ = v.ServerVersion(ctx)
			_ = conn.Disconnect()
		}
	}
	return res
}
