// Package config loads zeromem settings from defaults, an optional YAML
// file and ZEROMEM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/zeromem/internal/graphsync"
	"github.com/roach88/zeromem/internal/statestore"
)

// EnvPrefix prefixes every environment variable: state.backend is read from
// ZEROMEM_STATE_BACKEND.
const EnvPrefix = "ZEROMEM"

// Config holds all zeromem configuration.
type Config struct {
	State   StateConfig   `mapstructure:"state"`
	Aliases AliasesConfig `mapstructure:"aliases"`
	Neo4j   Neo4jConfig   `mapstructure:"neo4j"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// StateConfig selects the runtime state backend.
type StateConfig struct {
	Backend       string `mapstructure:"backend"` // memory, sqlite or redis
	SQLitePath    string `mapstructure:"sqlite_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

// AliasesConfig points at an optional YAML alias file layered over the
// built-in aliases.
type AliasesConfig struct {
	File string `mapstructure:"file"`
}

// Neo4jConfig configures graph export. Export is disabled when URI is empty.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// MetricsConfig names a Prometheus textfile to write after a run.
// Metrics are not collected when File is empty.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// Enabled reports whether graph export is configured.
func (n Neo4jConfig) Enabled() bool {
	return n.URI != ""
}

// Options converts the state section into statestore options.
func (s StateConfig) Options() statestore.Options {
	return statestore.Options{
		Backend:    s.Backend,
		SQLitePath: s.SQLitePath,
		Redis: statestore.RedisOptions{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
			Prefix:   s.RedisPrefix,
		},
	}
}

// Options converts the neo4j section into graphsync options.
func (n Neo4jConfig) Options() graphsync.Options {
	return graphsync.Options{
		URI:      n.URI,
		User:     n.User,
		Password: n.Password,
		Database: n.Database,
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	switch c.State.Backend {
	case statestore.BackendMemory:
	case statestore.BackendSQLite:
		if c.State.SQLitePath == "" {
			errs = append(errs, errors.New("state.sqlite_path is required for the sqlite backend"))
		}
	case statestore.BackendRedis:
		if c.State.RedisAddr == "" {
			errs = append(errs, errors.New("state.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("state.backend must be memory, sqlite or redis, got %q", c.State.Backend))
	}
	if c.State.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("state.redis_db must be >= 0, got %d", c.State.RedisDB))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("state.backend", statestore.BackendMemory)
	v.SetDefault("state.sqlite_path", "zeromem-state.db")
	v.SetDefault("state.redis_addr", "")
	v.SetDefault("state.redis_password", "")
	v.SetDefault("state.redis_db", 0)
	v.SetDefault("state.redis_prefix", statestore.DefaultRedisPrefix)
	v.SetDefault("aliases.file", "")
	v.SetDefault("neo4j.uri", "")
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "")
	v.SetDefault("metrics.file", "")
}

// flagKeys maps CLI flag names to config keys. Flags only override the
// config when set explicitly.
var flagKeys = map[string]string{
	"state":        "state.backend",
	"sqlite-path":  "state.sqlite_path",
	"redis-addr":   "state.redis_addr",
	"aliases":      "aliases.file",
	"neo4j-uri":    "neo4j.uri",
	"metrics-file": "metrics.file",
}

// Load reads configuration. path may be empty (no file). flags may be nil;
// otherwise any flag named in the flag table that the user set overrides
// file and environment values.
//
// Precedence, highest first: explicit flags, environment, file, defaults.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
