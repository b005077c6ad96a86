package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/leapstack-labs/sqlbridge/pkg/connector"
	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// Validate checks the configuration. Descriptors are not checked here;
// connectors report malformed ones when they connect.
func (c *Config) Validate() error {
	var errs []error

	for _, side := range []struct {
		name string
		typ  string
	}{{"source", c.Source.Type}, {"target", c.Target.Type}} {
		switch {
		case side.typ == "":
			errs = append(errs, fmt.Errorf("%s.type is required", side.name))
		case !connector.IsRegistered(side.typ):
			errs = append(errs, fmt.Errorf("%s.type: %w", side.name,
				&connector.UnknownConnectorError{Type: side.typ, Available: connector.List()}))
		}
	}

	if c.Transfer.Workers < 1 {
		errs = append(errs, fmt.Errorf("transfer.workers must be at least 1, got %d", c.Transfer.Workers))
	}
	if _, ok := core.ParseInsertMode(c.Transfer.InsertMode); !ok {
		errs = append(errs, fmt.Errorf("transfer.insert_mode %q is not one of best_effort, atomic", c.Transfer.InsertMode))
	}
	if !slices.Contains(OutputFormats, c.Output) {
		errs = append(errs, fmt.Errorf("output %q is not one of %v", c.Output, OutputFormats))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}

	return errors.Join(errs...)
}
