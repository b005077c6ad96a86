// Package commands implements the sqlbridge subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbridge/internal/cli/output"
	"github.com/leapstack-labs/sqlbridge/internal/config"
	"github.com/leapstack-labs/sqlbridge/internal/state"
	"github.com/leapstack-labs/sqlbridge/pkg/connector"
	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// Connector sides accepted as command arguments.
const (
	SideSource = string(core.SideSource)
	SideTarget = string(core.SideTarget)
)

var sides = []string{SideSource, SideTarget}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext reads the config and logger stored on the command context.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}, nil
}

// endpoint returns the registry config for side.
func (c *CommandContext) endpoint(side string) (connector.Config, config.EndpointConfig, error) {
	switch side {
	case SideSource:
		return c.Cfg.SourceConnector(), c.Cfg.Source, nil
	case SideTarget:
		return c.Cfg.TargetConnector(), c.Cfg.Target, nil
	}
	return connector.Config{}, config.EndpointConfig{}, fmt.Errorf("unknown side %q: expected source or target", side)
}

// NewConnector builds an unconnected connector for side.
func (c *CommandContext) NewConnector(side string) (core.Connector, error) {
	if err := c.Cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cc, _, err := c.endpoint(side)
	if err != nil {
		return nil, err
	}
	return connector.New(cc, c.Logger)
}

// Open connects a connector for side. The returned func disconnects.
func (c *CommandContext) Open(ctx context.Context, side string) (core.Connector, func(), error) {
	conn, err := c.NewConnector(side)
	if err != nil {
		return nil, nil, err
	}
	if err := conn.Connect(ctx); err != nil {
		return nil, nil, err
	}
	return conn, func() { _ = conn.Disconnect() }, nil
}

// Connect is Open followed by switching the target to target.database when
// one is configured.
func (c *CommandContext) Connect(ctx context.Context, side string) (core.Connector, func(), error) {
	conn, cleanup, err := c.Open(ctx, side)
	if err != nil {
		return nil, nil, err
	}

	if side == SideTarget && c.Cfg.Target.Database != "" {
		if err := conn.UseDatabase(ctx, c.Cfg.Target.Database); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return conn, cleanup, nil
}

// OpenStore opens the state database at state_path, creating its directory.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	path := c.Cfg.StatePath
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}
	store, err := state.OpenAndMigrate(path, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open state: %w", err)
	}
	return store, nil
}

func completeSides(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return sides, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
