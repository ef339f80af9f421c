package refresh

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/de-tools/book-atlas/pkg/store/duckdb"
	"github.com/de-tools/book-atlas/pkg/store/duckdb/snapshot"
	"github.com/rs/zerolog"
)

// Dashboard is what the runner refreshes.
type Dashboard interface {
	Variant() domain.Variant
	Reload(ctx context.Context) error
	Filters() domain.FilterSet
	Dataset() domain.Dataset
}

// Runner reloads a dashboard on a fixed interval and, when a snapshot store is set, re-saves
// the filtered view after every successful reload.
type Runner struct {
	dashboard Dashboard
	db        *sql.DB
	snapshots snapshot.Store
	done      chan struct{}
	progress  chan RunnerProgress
	config    RunnerConfig
}

type RunnerConfig struct {
	Interval     time.Duration
	SnapshotName string
}

type RunnerProgress struct {
	Cycle       int64
	Records     int
	RefreshedAt time.Time
	Snapshot    *snapshot.Info
	Err         error
}

// NewRunner builds a runner. db and snapshots may both be nil to only reload.
func NewRunner(d Dashboard, db *sql.DB, snapshots snapshot.Store, config RunnerConfig) (*Runner, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", config.Interval)
	}
	if (db == nil) != (snapshots == nil) {
		return nil, fmt.Errorf("snapshot refresh needs both a database and a snapshot store")
	}
	return &Runner{
		dashboard: d,
		db:        db,
		snapshots: snapshots,
		done:      make(chan struct{}),
		progress:  make(chan RunnerProgress, 100),
		config:    config,
	}, nil
}

func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) Progress() <-chan RunnerProgress {
	return r.progress
}

func (r *Runner) Run(ctx context.Context) {
	logger := zerolog.Ctx(ctx).With().
		Str("variant", r.dashboard.Variant().Name).
		Dur("interval", r.config.Interval).
		Logger()
	ctx = logger.WithContext(ctx)
	defer close(r.done)
	defer close(r.progress)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	var cycle int64
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("refresh stopped")
			return
		case <-ticker.C:
			cycle++
			p := r.refresh(ctx)
			p.Cycle = cycle
			if p.Err != nil {
				logger.Error().Err(p.Err).Int64("cycle", cycle).Msg("refresh failed")
			} else {
				logger.Debug().Int64("cycle", cycle).Int("records", p.Records).Msg("dashboard refreshed")
			}

			select {
			case r.progress <- p:
			default:
				logger.Warn().Int64("cycle", cycle).Msg("progress channel full, dropping update")
			}
		}
	}
}

func (r *Runner) refresh(ctx context.Context) RunnerProgress {
	p := RunnerProgress{RefreshedAt: time.Now().UTC()}

	if err := r.dashboard.Reload(ctx); err != nil {
		p.Err = err
		return p
	}
	ds := r.dashboard.Dataset()
	p.Records = ds.Len()

	if r.snapshots == nil || ds.Len() == 0 {
		return p
	}

	name := r.config.SnapshotName
	if name == "" {
		name = r.dashboard.Variant().Name
	}

	var info *snapshot.Info
	err := duckdb.InTransaction(ctx, r.db, func(ctx context.Context) error {
		var err error
		info, err = r.snapshots.Save(ctx, snapshot.Snapshot{
			Name:    name,
			Variant: r.dashboard.Variant().Name,
			Filters: r.dashboard.Filters(),
			Dataset: ds,
		})
		return err
	})
	if err != nil {
		p.Err = err
		return p
	}
	p.Snapshot = info
	return p
}
