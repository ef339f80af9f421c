package dashboard

import (
	"context"
	"fmt"
	"io"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/de-tools/book-atlas/pkg/services/config"
	"github.com/de-tools/book-atlas/pkg/services/landscape"
	"github.com/de-tools/book-atlas/pkg/services/loader"
	sqlstore "github.com/de-tools/book-atlas/pkg/store/sql"
	"github.com/rs/zerolog"
)

// SQLSource selects the warehouse query configured under dataset.sql.
const SQLSource = "sql"

// NewFromConfig resolves the configured variant and wires its dataset source. The returned
// controller is not loaded yet.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Controller, error) {
	logger := zerolog.Ctx(ctx)

	registry, err := config.NewRegistry(cfg.VariantsFile)
	if err != nil {
		return nil, err
	}
	variant, err := registry.GetVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	if cfg.Dataset.Source != "" {
		variant.Source = cfg.Dataset.Source
	}

	transform, err := newTransform(variant, cfg.Dataset.StatusFile)
	if err != nil {
		return nil, err
	}

	var (
		l       loader.Loader
		closers []io.Closer
	)
	if variant.Source == SQLSource {
		store, closer, err := newSQLLoader(ctx, cfg.Dataset.SQL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, closer)
		l = loader.Func(func(ctx context.Context) (domain.Dataset, error) {
			ds, err := store.Load(ctx)
			if err != nil {
				return domain.Dataset{}, fmt.Errorf("%w: %w", loader.ErrLoad, err)
			}
			if transform != nil {
				ds = transform(ds)
			}
			return ds, nil
		})
	} else {
		src, err := loader.NewSource(ctx, variant.Source)
		if err != nil {
			return nil, err
		}
		l = loader.NewJSONLoader(src, transform)
	}

	logger.Info().
		Str("variant", variant.Name).
		Str("source", variant.Source).
		Msg("dashboard configured")
	return NewController(variant, l, closers...), nil
}

func newTransform(v domain.Variant, statusFile string) (loader.Transform, error) {
	switch v.Transform {
	case "":
		return nil, nil
	case config.VariantLandscape:
		var statuses landscape.StatusSource
		if statusFile != "" {
			var err error
			statuses, err = landscape.LoadStatusSource(statusFile)
			if err != nil {
				return nil, err
			}
		}
		return landscape.NewTransformer(landscape.DefaultFields, statuses).Transform, nil
	}
	return nil, fmt.Errorf("variant %s: unknown transform %q", v.Name, v.Transform)
}

func newSQLLoader(ctx context.Context, cfg config.SQLConfig) (*sqlstore.DatasetStore, io.Closer, error) {
	dsn := cfg.DSN
	if cfg.Profile != "" {
		var err error
		dsn, err = sqlstore.DSNFromProfile(cfg.Driver, cfg.Profile)
		if err != nil {
			return nil, nil, err
		}
	}
	db, err := sqlstore.Open(ctx, cfg.Driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlstore.NewDatasetStore(db, cfg.Query)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}
