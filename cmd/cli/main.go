package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/book-atlas/pkg/runtime/terminal"
	"github.com/de-tools/book-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/book-atlas/pkg/services/config"
	"github.com/de-tools/book-atlas/pkg/services/dashboard"
	_ "github.com/databricks/databricks-sql-go"
	"github.com/joho/godotenv"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/rs/zerolog"
	_ "github.com/snowflakedb/gosnowflake"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(os.Getenv(config.EnvPrefix + "_LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		logger = logger.Level(lvl)
	}
	ctx := logger.WithContext(context.Background())

	cli := terminal.NewCLI(terminal.Options{
		Factory: func(ctx context.Context, cfg *config.Config) (commands.Dashboard, error) {
			ctrl, err := dashboard.NewFromConfig(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return ctrl, nil
		},
		Output: os.Stdout,
	})

	if err := cli.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
