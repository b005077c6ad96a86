// Package mariadb provides the MariaDB/MySQL target connector for sqlbridge.
//
// MariaDB has no schema level between database and table, so tables use
// flat names such as Sales_Currency (see pkg/ident). A bare name resolves to
// the active database.
package mariadb

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/leapstack-labs/sqlbridge/pkg/connector"
	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// DriverName is the database/sql driver used to open connections.
const DriverName = "mysql"

// Connector implements core.Connector for MariaDB and MySQL.
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

// New creates an unconnected MariaDB connector for descriptor.
// If logger is nil, a discard logger is used.
func New(descriptor string, logger *slog.Logger, opts ...Option) *Connector {
	c := &Connector{
		Base: connector.NewBase(DriverName, connector.Config{Descriptor: descriptor}, logger),
	}
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
		c.Logger.Error("mariadb connect failed", slog.Any("error", err))
		return err
	}

	cfg, err := mysql.ParseDSN(c.Descriptor)
	if err != nil {
		err := core.Errorf(core.KindValidation, "Connect", "invalid mariadb connection descriptor")
		c.Logger.Error("mariadb connect failed", slog.Any("error", err))
		return err
	}

	c.Logger.Debug("connecting to mariadb", slog.String("addr", cfg.Addr), slog.String("database", cfg.DBName))

	if err := c.Base.Connect(ctx); err != nil {
		c.Logger.Error("mariadb connect failed",
			slog.String("dsn", c.ConnectionString()),
			slog.Int("mysql_code", errorCode(err)),
			slog.Any("error", err))
		return err
	}

	c.Logger.Info("connected to mariadb", slog.String("dsn", c.ConnectionString()))
	return nil
}

// Disconnect closes the live connection.
func (c *Connector) Disconnect() error {
	if err := c.Base.Disconnect(); err != nil {
		c.Logger.Error("mariadb disconnect failed", slog.Any("error", err))
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
		c.Logger.Warn("mariadb connection test failed", slog.String("dsn", c.ConnectionString()), slog.Any("error", err))
		return err
	}
	return nil
}

// ConnectionString returns the descriptor with the password masked.
func (c *Connector) ConnectionString() string {
	return MaskDescriptor(c.Descriptor)
}

// MaskDescriptor replaces the password of a go-sql-driver/mysql DSN
// (user:pass@tcp(host:3306)/db?params) with core.SecretMask.
func MaskDescriptor(descriptor string) string {
	if strings.TrimSpace(descriptor) == "" {
		return core.NotConfigured
	}
	if cfg, err := mysql.ParseDSN(descriptor); err == nil && cfg.Passwd == "" {
		return descriptor
	}

	// same split rule as the driver: the last '@' before the last '/'
	slash := strings.LastIndex(descriptor, "/")
	if slash < 0 {
		slash = len(descriptor)
	}
	at := strings.LastIndex(descriptor[:slash], "@")
	if at < 0 {
		return descriptor
	}
	colon := strings.Index(descriptor[:at], ":")
	if colon < 0 {
		return descriptor
	}
	return descriptor[:colon+1] + core.SecretMask + descriptor[at:]
}

// errorCode returns the server error number, or 0 when err is not a MySQLError.
func errorCode(err error) int {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return int(myErr.Number)
	}
	return 0
}

// quoteIdent wraps a single identifier part in backticks.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Ensure Connector implements core.Connector.
var _ core.Connector = (*Connector)(nil)
