package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// ErrLoad marks any failure to fetch or decode a dataset.
var ErrLoad = errors.New("failed to load dataset")

type Loader interface {
	Load(ctx context.Context) (domain.Dataset, error)
}

// Transform reshapes a freshly decoded dataset before it reaches the store.
type Transform func(domain.Dataset) domain.Dataset

type jsonLoader struct {
	source    Source
	transform Transform
}

// NewJSONLoader decodes the payload of source and applies transform when it is not nil.
func NewJSONLoader(source Source, transform Transform) Loader {
	return &jsonLoader{source: source, transform: transform}
}

func (l *jsonLoader) Load(ctx context.Context) (domain.Dataset, error) {
	logger := zerolog.Ctx(ctx)

	body, err := l.source.Open(ctx)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("%w from %s: %w", ErrLoad, l.source, err)
	}
	defer func() {
		if err := body.Close(); err != nil {
			logger.Warn().Err(err).Str("source", l.source.String()).Msg("failed to close dataset body")
		}
	}()

	ds, err := Decode(body)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("%w from %s: %w", ErrLoad, l.source, err)
	}
	if l.transform != nil {
		ds = l.transform(ds)
	}

	logger.Debug().
		Str("source", l.source.String()).
		Int("records", ds.Len()).
		Int("columns", len(ds.Columns)).
		Msg("dataset loaded")
	return ds, nil
}

// Func adapts a plain function to Loader.
type Func func(ctx context.Context) (domain.Dataset, error)

func (f Func) Load(ctx context.Context) (domain.Dataset, error) {
	return f(ctx)
}
