package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "BOOK_ATLAS"

type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        string   `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// SQLConfig configures the warehouse dataset source. Either DSN or a profile file for the
// driver is used.
type SQLConfig struct {
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	Profile string `mapstructure:"profile"`
	Query   string `mapstructure:"query"`
}

type DatasetConfig struct {
	// Source overrides the variant source: a path, an http(s) URL, an s3:// URL or "sql".
	Source     string    `mapstructure:"source"`
	StatusFile string    `mapstructure:"status_file"`
	SQL        SQLConfig `mapstructure:"sql"`
}

// RefreshConfig enables periodic reloads in the web server. Snapshot, when set, names the
// DuckDB snapshot rewritten after each reload.
type RefreshConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Snapshot string        `mapstructure:"snapshot"`
}

type Config struct {
	Variant      string        `mapstructure:"variant"`
	VariantsFile string        `mapstructure:"variants_file"`
	Server       ServerConfig  `mapstructure:"server"`
	Dataset      DatasetConfig `mapstructure:"dataset"`
	SnapshotDB   string        `mapstructure:"snapshot_db"`
	Refresh      RefreshConfig `mapstructure:"refresh"`
	LogLevel     string        `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("variant", "book-of-business")
	v.SetDefault("variants_file", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("dataset.source", "")
	v.SetDefault("dataset.status_file", "")
	v.SetDefault("dataset.sql.driver", "")
	v.SetDefault("dataset.sql.dsn", "")
	v.SetDefault("dataset.sql.profile", "")
	v.SetDefault("dataset.sql.query", "")
	v.SetDefault("snapshot_db", "book-atlas.duckdb")
	v.SetDefault("refresh.interval", "0s")
	v.SetDefault("refresh.snapshot", "")
	v.SetDefault("log_level", "info")
}

// LoadConfig reads the service configuration. An empty path uses defaults and environment
// only; BOOK_ATLAS_SERVER_PORT overrides server.port and so on.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
