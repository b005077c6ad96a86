// Package core defines the shared language of sqlbridge.
//
// This package contains:
//   - Data types moved between engines (Value, Row, TableSnapshot)
//   - The Connector contract implemented in pkg/connectors/
//   - Typed connector errors (Error, Kind)
//   - Transfer run records persisted by the state store
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
