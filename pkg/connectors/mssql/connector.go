// Package mssql provides the SQL Server source connector for sqlbridge.
//
// Tables are addressed as schema.table with optional [bracket] quoting; a bare
// name resolves to the dbo schema. The connector is read-oriented: databases
// can be checked and switched but never created or dropped.
package mssql

import (
	"context"
	"log/slog"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/leapstack-labs/sqlbridge/pkg/connector"
	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// DriverName is the database/sql driver used to open connections.
const DriverName = "sqlserver"

// DefaultSchema qualifies table names given without a schema.
const DefaultSchema = "dbo"

// Connector implements core.Connector for SQL Server.
type Connector struct {
	connector.Base
}

// Option configures a Connector.
type Option func(*Connector)

// WithOpener replaces sql.Open. Used by tests to inject sqlmock.
func WithOpener(open connector.Opener) Option {
	return func(c *Connector) { c.Open = open }
}

// WithInsertMode selects best-effort or atomic inserts.
func WithInsertMode(mode core.InsertMode) Option {
	return func(c *Connector) { c.Mode = mode }
}

// New creates an unconnected SQL Server connector for descriptor.
// If logger is nil, a discard logger is used.
func New(descriptor string, logger *slog.Logger, opts ...Option) *Connector {
	c := &Connector{
		Base: connector.NewBase(DriverName, connector.Config{Descriptor: descriptor}, logger),
	}
	c.Convert = convertValue
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect validates the descriptor and opens the live connection.
func (c *Connector) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}
	if strings.TrimSpace(c.Descriptor) == "" {
		err := core.Errorf(core.KindValidation, "Connect", "connection descriptor is empty")
		c.Logger.Error("sql server connect failed", slog.Any("error", err))
		return err
	}

	cfg, err := msdsn.Parse(c.Descriptor)
	if err != nil {
		// the parse error may echo the descriptor, so it is not wrapped
		err := core.Errorf(core.KindValidation, "Connect", "invalid sql server connection descriptor")
		c.Logger.Error("sql server connect failed", slog.Any("error", err))
		return err
	}

	c.Logger.Debug("connecting to sql server", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	if err := c.Base.Connect(ctx); err != nil {
		c.Logger.Error("sql server connect failed", slog.String("dsn", c.ConnectionString()), slog.Any("error", err))
		return err
	}

	c.Logger.Info("connected to sql server", slog.String("dsn", c.ConnectionString()))
	return nil
}

// Disconnect closes the live connection.
func (c *Connector) Disconnect() error {
	if err := c.Base.Disconnect(); err != nil {
		c.Logger.Error("sql server disconnect failed", slog.Any("error", err))
		return err
	}
	return nil
}

// TestConnection opens and closes a throwaway connection.
func (c *Connector) TestConnection(ctx context.Context) error {
	if strings.TrimSpace(c.Descriptor) == "" {
		return core.Errorf(core.KindValidation, "TestConnection", "connection descriptor is empty")
	}
	if err := c.Base.TestConnection(ctx); err != nil {
		c.Logger.Warn("sql server connection test failed", slog.String("dsn", c.ConnectionString()), slog.Any("error", err))
		return err
	}
	return nil
}

// ConnectionString returns the descriptor with secrets masked.
func (c *Connector) ConnectionString() string {
	return MaskDescriptor(c.Descriptor)
}

// convertValue decodes UNIQUEIDENTIFIER columns to their canonical text form
// and defers everything else to core.FromDriver.
func convertValue(src any, dbType string) (core.Value, error) {
	if b, ok := src.([]byte); ok && strings.EqualFold(dbType, "UNIQUEIDENTIFIER") {
		var u mssql.UniqueIdentifier
		if err := u.Scan(b); err != nil {
			return core.Null(), err
		}
		return core.Text(u.String()), nil
	}
	return core.FromDriver(src, dbType)
}

// quoteIdent brackets a single identifier part.
func quoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Ensure Connector implements core.Connector.
var _ core.Connector = (*Connector)(nil)
