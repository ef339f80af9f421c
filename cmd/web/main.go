package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/de-tools/book-atlas/pkg/server"
	"github.com/de-tools/book-atlas/pkg/services/config"
	"github.com/de-tools/book-atlas/pkg/services/dashboard"
	"github.com/de-tools/book-atlas/pkg/services/refresh"
	"github.com/de-tools/book-atlas/pkg/store/duckdb"
	"github.com/de-tools/book-atlas/pkg/store/duckdb/snapshot"
	_ "github.com/databricks/databricks-sql-go"
	"github.com/joho/godotenv"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/rs/zerolog"
	_ "github.com/snowflakedb/gosnowflake"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Book Atlas dashboards",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to the book-atlas config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	ctrl, err := dashboard.NewFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}
	defer ctrl.Close()

	// The server still starts on a failed first load; POST /reload retries.
	if err := ctrl.Reload(ctx); err != nil {
		logger.Error().Err(err).Msg("initial dataset load failed")
	}

	variant := ctrl.Variant()
	logger.Info().Msgf("Serving variant `%s` (%s) from `%s`", variant.Name, variant.Title, variant.Source)

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")
	addr := cfg.Address()
	if host != "" && port != "" {
		addr = net.JoinHostPort(host, port)
	}

	if cfg.Refresh.Interval > 0 {
		stop, err := startRefresh(ctx, ctrl, cfg)
		if err != nil {
			return err
		}
		defer stop()
	}

	webAPI := server.NewWebAPI(logger, server.Config{
		Addr:            addr,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     cfg.Server.CORSOrigins,
		Dependencies: server.Dependencies{
			Dashboard: ctrl,
		},
	})

	return webAPI.Start()
}

func startRefresh(ctx context.Context, ctrl *dashboard.Controller, cfg *config.Config) (func(), error) {
	logger := zerolog.Ctx(ctx)

	var (
		runner *refresh.Runner
		err    error
	)
	closeDB := func() {}
	if cfg.Refresh.Snapshot != "" {
		db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.SnapshotDB})
		if err != nil {
			return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		closeDB = func() { _ = db.Close() }

		store, err := snapshot.NewStore(db)
		if err != nil {
			closeDB()
			return nil, err
		}
		runner, err = refresh.NewRunner(ctrl, db, store, refresh.RunnerConfig{
			Interval:     cfg.Refresh.Interval,
			SnapshotName: cfg.Refresh.Snapshot,
		})
		if err != nil {
			closeDB()
			return nil, err
		}
	} else {
		runner, err = refresh.NewRunner(ctrl, nil, nil, refresh.RunnerConfig{Interval: cfg.Refresh.Interval})
		if err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	go runner.Run(ctx)
	go func() {
		for p := range runner.Progress() {
			if p.Snapshot != nil {
				logger.Info().Str("table", p.Snapshot.Table).Int("records", p.Records).Msg("snapshot refreshed")
			}
		}
	}()

	return func() {
		cancel()
		<-runner.Done()
		closeDB()
	}, nil
}
