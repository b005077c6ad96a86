package mariadb

import (
	"context"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
	"github.com/leapstack-labs/sqlbridge/pkg/ident"
)

const databaseExistsQuery = "SELECT COUNT(*) FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?"

// systemDatabases can never be dropped through the connector.
var systemDatabases = map[string]bool{
	"mysql":              true,
	"information_schema": true,
	"performance_schema": true,
	"sys":                true,
}

// DatabaseExists reports whether name is listed in information_schema.SCHEMATA.
func (c *Connector) DatabaseExists(ctx context.Context, name string) (bool, error) {
	const op = "DatabaseExists"
	if err := c.RequireConnected(op); err != nil {
		return false, err
	}

	n, err := c.QueryInt64(ctx, databaseExistsQuery, name)
	if err != nil {
		err = core.NewError(core.KindExecution, op, "failed to query schemata", err)
		c.Logger.Error(op+" failed", slog.String("database", name), slog.Any("error", err))
		return false, err
	}
	return n > 0, nil
}

// CreateDatabase creates name with the utf8mb4 character set if it does not
// exist, then confirms it is visible.
func (c *Connector) CreateDatabase(ctx context.Context, name string) error {
	const op = "CreateDatabase"

	if err := c.validateName(op, name); err != nil {
		return err
	}
	if err := c.RequireConnected(op); err != nil {
		return err
	}

	stmt := "CREATE DATABASE IF NOT EXISTS " + quoteIdent(name) + " CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci"
	if err := c.Exec(ctx, stmt); err != nil {
		err = core.NewError(core.KindExecution, op, "failed to create database", err)
		c.Logger.Error(op+" failed", slog.String("database", name), slog.Int("mysql_code", errorCode(err)), slog.Any("error", err))
		return err
	}

	exists, err := c.DatabaseExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		err := core.Errorf(core.KindExecution, op, "database %q not visible after create", name)
		c.Logger.Error(op+" failed", slog.Any("error", err))
		return err
	}

	c.Logger.Info("database created", slog.String("database", name))
	return nil
}

// DeleteDatabase drops name if it exists, then confirms it is gone.
// System databases are refused.
func (c *Connector) DeleteDatabase(ctx context.Context, name string) error {
	const op = "DeleteDatabase"

	if err := c.validateName(op, name); err != nil {
		return err
	}
	if systemDatabases[strings.ToLower(name)] {
		err := core.Errorf(core.KindValidation, op, "refusing to drop system database %q", name)
		c.Logger.Error(op+" failed", slog.Any("error", err))
		return err
	}
	if err := c.RequireConnected(op); err != nil {
		return err
	}

	if err := c.Exec(ctx, "DROP DATABASE IF EXISTS "+quoteIdent(name)); err != nil {
		err = core.NewError(core.KindExecution, op, "failed to drop database", err)
		c.Logger.Error(op+" failed", slog.String("database", name), slog.Int("mysql_code", errorCode(err)), slog.Any("error", err))
		return err
	}

	exists, err := c.DatabaseExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		err := core.Errorf(core.KindExecution, op, "database %q still visible after drop", name)
		c.Logger.Error(op+" failed", slog.Any("error", err))
		return err
	}

	c.Logger.Info("database dropped", slog.String("database", name))
	return nil
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

// ActiveDatabase returns DATABASE() for the live connection, or "" when none is selected.
func (c *Connector) ActiveDatabase(ctx context.Context) (string, error) {
	const op = "ActiveDatabase"
	if err := c.RequireConnected(op); err != nil {
		return "", err
	}

	name, _, err := c.QueryNullString(ctx, activeDatabaseQuery)
	if err != nil {
		err = core.NewError(core.KindExecution, op, "failed to query DATABASE()", err)
		c.Logger.Error(op+" failed", slog.Any("error", err))
		return "", err
	}
	return name, nil
}

// ServerVersion returns VERSION().
func (c *Connector) ServerVersion(ctx context.Context) (string, error) {
	const op = "ServerVersion"
	if err := c.RequireConnected(op); err != nil {
		return "", err
	}

	v, _, err := c.QueryNullString(ctx, "SELECT VERSION()")
	if err != nil {
		return "", core.NewError(core.KindExecution, op, "failed to query VERSION()", err)
	}
	return v, nil
}

func (c *Connector) validateName(op, name string) error {
	if !ident.IsValidFlat(name) {
		err := core.Errorf(core.KindValidation, op, "invalid database name %q", name)
		c.Logger.Error(op+" failed", slog.Any("error", err))
		return err
	}
	return nil
}
