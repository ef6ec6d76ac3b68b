// Package config loads querykit settings from an optional file and prefixed
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix used by martq.
const EnvPrefix = "MARTQ_"

type Config struct {
	Database Database `mapstructure:"database"`
	Log      Log      `mapstructure:"log"`
	Query    Query    `mapstructure:"query"`
	// Tables holds extra "Model=table" aliases. Viper lowercases map keys, so
	// aliases are kept as strings to preserve model name case.
	Tables []string `mapstructure:"tables"`
}

type Database struct {
	Driver string `mapstructure:"driver"` // pgx, postgres, sqlite
	DSN    string `mapstructure:"dsn"`
}

type Log struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

type Query struct {
	DefaultPageSize  int      `mapstructure:"default_page_size"`
	DisallowColumns  []string `mapstructure:"disallow_columns"`
	NestedJSONColumn string   `mapstructure:"nested_json_column"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "pgx")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("query.default_page_size", 10)
}

// Load reads file (if not empty) and then environment variables starting with
// prefix, e.g. MARTQ_DATABASE_DSN -> database.dsn. Environment wins.
func Load(prefix, file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s", file)
			}
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	prefixUpper := strings.ToUpper(prefix)
	for _, envStr := range os.Environ() {
		key, value, ok := strings.Cut(envStr, "=")
		if !ok || !strings.HasPrefix(key, prefixUpper) {
			continue
		}
		v.Set(envKey(strings.TrimPrefix(key, prefixUpper)), value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := cfg.TableAliases(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TableAliases parses Tables into a model name to table map.
func (c *Config) TableAliases() (map[string]string, error) {
	out := make(map[string]string, len(c.Tables))
	for _, pair := range c.Tables {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		model, table, ok := strings.Cut(pair, "=")
		model, table = strings.TrimSpace(model), strings.TrimSpace(table)
		if !ok || model == "" || table == "" {
			return nil, fmt.Errorf("invalid table alias %q (want Model=table)", pair)
		}
		out[model] = table
	}
	return out, nil
}

// Keys with underscores can't be told apart from nesting in an env name, so
// the known multi-word keys are matched first.
var multiWordKeys = []string{"default_page_size", "disallow_columns", "nested_json_column"}

// envKey turns QUERY_DEFAULT_PAGE_SIZE into query.default_page_size.
func envKey(name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, "_"))
	for _, mk := range multiWordKeys {
		if strings.HasSuffix(name, "_"+mk) {
			return strings.ReplaceAll(strings.TrimSuffix(name, "_"+mk), "_", ".") + "." + mk
		}
	}
	return strings.ReplaceAll(name, "_", ".")
}
