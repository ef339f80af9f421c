package sql

import (
	"fmt"
	"net/url"

	"github.com/snowflakedb/gosnowflake"
	"github.com/spf13/viper"
)

type DatabricksProfile struct {
	Host     string `mapstructure:"host" validate:"required"`
	Token    string `mapstructure:"token" validate:"required"`
	HTTPPath string `mapstructure:"http_path" validate:"required"`
	Catalog  string `mapstructure:"catalog"`
	Schema   string `mapstructure:"schema"`
}

func readProfile(path string, out any) error {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read profile file: %w", err)
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to parse profile: %w", err)
	}
	return nil
}

// DSNFromProfile builds a driver DSN from a YAML connection profile.
func DSNFromProfile(driver, path string) (string, error) {
	switch driver {
	case DriverSnowflake:
		var cfg gosnowflake.Config
		if err := readProfile(path, &cfg); err != nil {
			return "", err
		}
		dsn, err := gosnowflake.DSN(&cfg)
		if err != nil {
			return "", fmt.Errorf("build snowflake dsn: %w", err)
		}
		return dsn, nil
	case DriverDatabricks:
		var cfg DatabricksProfile
		if err := readProfile(path, &cfg); err != nil {
			return "", err
		}
		dsn := fmt.Sprintf("token:%s@%s%s", cfg.Token, cfg.Host, cfg.HTTPPath)

		params := url.Values{}
		if cfg.Catalog != "" {
			params.Set("catalog", cfg.Catalog)
		}
		if cfg.Schema != "" {
			params.Set("schema", cfg.Schema)
		}
		if qp := params.Encode(); qp != "" {
			dsn = dsn + "?" + qp
		}
		return dsn, nil
	}
	return "", fmt.Errorf("driver %q does not support profiles", driver)
}
