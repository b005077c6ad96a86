package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"source-type": "source.type",
	"source-dsn":  "source.dsn",
	"target-type": "target.type",
	"target-dsn":  "target.dsn",
	"database":    "target.database",
	"workers":     "transfer.workers",
	"insert-mode": "transfer.insert_mode",
	"tables":      "transfer.tables",
	"state":       "state_path",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"output":      "output",
}

// sections are the nested keys an env var name can address,
// e.g. SQLBRIDGE_TRANSFER_INSERT_MODE -> transfer.insert_mode.
var sections = []string{"source", "target", "transfer", "log"}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads configuration from defaults, the config file, environment
// variables, and flags. Precedence (highest to lowest): flags > env vars >
// config file > defaults.
//
// cfgFile may be empty, in which case sqlbridge.yaml or sqlbridge.yml in the
// working directory is used when present. Config.File records the file read.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"source.type":          DefaultSourceType,
		"target.type":          DefaultTargetType,
		"transfer.workers":     DefaultWorkers,
		"transfer.insert_mode": DefaultInsertMode,
		"state_path":           DefaultStateFile,
		"log.level":            DefaultLogLevel,
		"log.format":           DefaultLogFormat,
		"output":               DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment variables
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	cfg.normalize()

	return &cfg, nil
}

// findConfigFile returns explicit when set, otherwise the first default
// config file found in the working directory, or "".
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKeyValue maps SQLBRIDGE_SOURCE_DSN to source.dsn and splits the
// comma-separated table list.
func envKeyValue(name, value string) (string, interface{}) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			key = section + "." + strings.TrimPrefix(key, section+"_")
			break
		}
	}
	if key == "transfer.tables" {
		return key, splitList(value)
	}
	return key, value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) normalize() {
	c.Source.Type = strings.ToLower(strings.TrimSpace(c.Source.Type))
	c.Target.Type = strings.ToLower(strings.TrimSpace(c.Target.Type))
	c.Source.DSN = expandEnvVars(c.Source.DSN)
	c.Target.DSN = expandEnvVars(c.Target.DSN)
	c.Target.Database = expandEnvVars(c.Target.Database)
	c.StatePath = expandEnvVars(c.StatePath)
	c.Transfer.InsertMode = strings.ToLower(strings.TrimSpace(c.Transfer.InsertMode))
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	c.Output = strings.ToLower(c.Output)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}
