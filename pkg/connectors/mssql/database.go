package mssql

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

const unsupportedLifecycle = "the sql server connector is read-oriented; manage databases with server tooling"

// DatabaseExists reports whether name is listed in sys.databases.
func (c *Connector) DatabaseExists(ctx context.Context, name string) (bool, error) {
	const op = "DatabaseExists"
	if err := c.RequireConnected(op); err != nil {
		return false, err
	}

	n, err := c.QueryInt64(ctx, "SELECT COUNT(*) FROM sys.databases WHERE name = @p1", name)
	if err != nil {
		err = core.NewError(core.KindExecution, op, "failed to query sys.databases", err)
		c.Logger.Error(op+" failed", slog.String("database", name), slog.Any("error", err))
		return false, err
	}
	return n > 0, nil
}

// CreateDatabase always fails with KindUnsupported.
func (c *Connector) CreateDatabase(_ context.Context, name string) error {
	err := core.Errorf(core.KindUnsupported, "CreateDatabase", unsupportedLifecycle)
	c.Logger.Warn("CreateDatabase refused", slog.String("database", name))
	return err
}

// DeleteDatabase always fails with KindUnsupported.
func (c *Connector) DeleteDatabase(_ context.Context, name string) error {
	err := core.Errorf(core.KindUnsupported, "DeleteDatabase", unsupportedLifecycle)
	c.Logger.Warn("DeleteDatabase refused", slog.String("database", name))
	return err
}

// UseDatabase switches the live connection to name after confirming it exists.
// Switching to the already active database is a no-op.
func (c *Connector) UseDatabase(ctx context.Context, name string) error {
	const op = "UseDatabase"

	exists, err := c.DatabaseExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		err := core.Errorf(core.KindCatalogMismatch, op, "database %q does not exist", name)
		c.Logger.Error(op+" failed", slog.Any("error", err))
		return err
	}

	active, err := c.ActiveDatabase(ctx)
	if err != nil {
		return err
	}
	if active == name {
		c.Logger.Debug("database already active", slog.String("database", name))
		return nil
	}

	if err := c.Exec(ctx, "USE "+quoteIdent(name)); err != nil {
		err = core.NewError(core.KindExecution, op, "failed to switch database", err)
		c.Logger.Error(op+" failed", slog.String("database", name), slog.Any("error", err))
		return err
	}

	c.Logger.Info("active database changed", slog.String("database", name))
	return nil
}

// ActiveDatabase returns DB_NAME() for the live connection.
func (c *Connector) ActiveDatabase(ctx context.Context) (string, error) {
	const op = "ActiveDatabase"
	if err := c.RequireConnected(op); err != nil {
		return "", err
	}

	name, _, err := c.QueryNullString(ctx, "SELECT DB_NAME()")
	if err != nil {
		err = core.NewError(core.KindExecution, op, "failed to query DB_NAME()", err)
		c.Logger.Error(op+" failed", slog.Any("error", err))
		return "", err
	}
	return name, nil
}

// ServerVersion returns @@VERSION.
func (c *Connector) ServerVersion(ctx context.Context) (string, error) {
	const op = "ServerVersion"
	if err := c.RequireConnected(op); err != nil {
		return "", err
	}

	v, _, err := c.QueryNullString(ctx, "SELECT @@VERSION")
	if err != nil {
		return "", core.NewError(core.KindExecution, op, "failed to query @@VERSION", err)
	}
	return v, nil
}
