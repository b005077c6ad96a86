// Package config loads sqlbridge configuration from defaults, sqlbridge.yaml,
// SQLBRIDGE_* environment variables, and command-line flags.
package config

import (
	"github.com/leapstack-labs/sqlbridge/pkg/connector"
	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "sqlbridge.yaml"
	ConfigFileNameAlt = "sqlbridge.yml"
)

// Default configuration values.
const (
	DefaultSourceType = "mssql"
	DefaultTargetType = "mariadb"
	DefaultWorkers    = 1
	DefaultInsertMode = "best_effort"
	DefaultStateFile  = ".sqlbridge/state.db"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultOutput     = "auto" // TTY=text, non-TTY=markdown
	EnvPrefix         = "SQLBRIDGE_"
)

// Output formats accepted by the "output" key.
var OutputFormats = []string{"auto", "text", "markdown", "json"}

// Config holds all sqlbridge configuration options.
type Config struct {
	Source    EndpointConfig `koanf:"source" yaml:"source" json:"source"`
	Target    EndpointConfig `koanf:"target" yaml:"target" json:"target"`
	Transfer  TransferConfig `koanf:"transfer" yaml:"transfer" json:"transfer"`
	StatePath string         `koanf:"state_path" yaml:"state_path" json:"state_path"`
	Log       LogConfig      `koanf:"log" yaml:"log" json:"log"`
	Output    string         `koanf:"output" yaml:"output" json:"output"`

	// File is the config file that was read, or "".
	File string `koanf:"-" yaml:"-" json:"-"`
}

// EndpointConfig describes one side of a transfer.
type EndpointConfig struct {
	Type     string `koanf:"type" yaml:"type" json:"type"`
	DSN      string `koanf:"dsn" yaml:"dsn" json:"dsn"`
	Database string `koanf:"database" yaml:"database,omitempty" json:"database,omitempty"`
}

// TransferConfig tunes the migrate and verify commands.
type TransferConfig struct {
	Workers    int      `koanf:"workers" yaml:"workers" json:"workers"`
	InsertMode string   `koanf:"insert_mode" yaml:"insert_mode" json:"insert_mode"`
	Tables     []string `koanf:"tables" yaml:"tables,omitempty" json:"tables,omitempty"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}

// InsertMode returns the parsed transfer.insert_mode.
// Unknown names fall back to best effort; Validate reports them.
func (c *Config) InsertMode() core.InsertMode {
	mode, _ := core.ParseInsertMode(c.Transfer.InsertMode)
	return mode
}

// SourceConnector returns the registry config for the source side.
func (c *Config) SourceConnector() connector.Config {
	return connector.Config{Type: c.Source.Type, Descriptor: c.Source.DSN, InsertMode: c.InsertMode()}
}

// TargetConnector returns the registry config for the target side.
func (c *Config) TargetConnector() connector.Config {
	return connector.Config{Type: c.Target.Type, Descriptor: c.Target.DSN, InsertMode: c.InsertMode()}
}

// Masked returns a copy with both descriptors masked by their connector.
func (c *Config) Masked() *Config {
	out := *c
	out.Transfer.Tables = append([]string(nil), c.Transfer.Tables...)
	out.Source.DSN = MaskDescriptor(c.Source)
	out.Target.DSN = MaskDescriptor(c.Target)
	return &out
}

// MaskDescriptor renders e.DSN with its secret masked. Unknown connector
// types hide the whole descriptor.
func MaskDescriptor(e EndpointConfig) string {
	if e.DSN == "" {
		return core.NotConfigured
	}
	conn, err := connector.New(connector.Config{Type: e.Type, Descriptor: e.DSN}, nil)
	if err != nil {
		return core.SecretMask
	}
	return conn.ConnectionString()
}
