package mariadb

import (
	"log/slog"

	"github.com/leapstack-labs/sqlbridge/pkg/connector"
	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

func init() {
	factory := func(cfg connector.Config, logger *slog.Logger) core.Connector {
		return New(cfg.Descriptor, logger, WithInsertMode(cfg.InsertMode))
	}
	connector.Register("mariadb", factory)
	connector.Register("mysql", factory)
}
