// Package connector holds the registry of connector implementations.
//
// Concrete connectors live in pkg/connectors/ and register themselves from
// init(); import them for side effects to make them available by name.
package connector

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// Config selects and configures a connector.
type Config struct {
	Type       string // registry name, e.g. "mssql" or "mariadb"
	Descriptor string // backend-specific connection string
	InsertMode core.InsertMode
}

// Factory builds an unconnected connector.
type Factory func(cfg Config, logger *slog.Logger) core.Connector

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a connector factory to the registry.
// Called by connector implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a connector factory by name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates an unconnected connector based on cfg.Type.
// The logger is passed to the connector constructor (nil uses discard logger).
func New(cfg Config, logger *slog.Logger) (core.Connector, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("connector type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownConnectorError{
			Type:      cfg.Type,
			Available: List(),
		}
	}
	return factory(cfg, logger), nil
}

// List returns all registered connector names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a connector type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownConnectorError is returned when an unknown connector type is requested.
type UnknownConnectorError struct {
	Type      string
	Available []string
}

func (e *UnknownConnectorError) Error() string {
	return fmt.Sprintf("unknown connector type %q\nAvailable connectors: %v\nHint: Check source.type and target.type in sqlbridge.yaml", e.Type, e.Available)
}
