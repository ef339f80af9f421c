package sql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Drivers the binaries register for dataset queries.
const (
	DriverSnowflake  = "snowflake"
	DriverDatabricks = "databricks"
	DriverDuckDB     = "duckdb"
)

// DatasetStore reads a dashboard dataset from a warehouse query. Each result column becomes
// a record field, in select order.
type DatasetStore struct {
	db    *sql.DB
	query string
}

func NewDatasetStore(db *sql.DB, query string) (*DatasetStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if query == "" {
		return nil, fmt.Errorf("dataset query is empty")
	}
	return &DatasetStore{db: db, query: query}, nil
}

// Open connects with one of the registered drivers and checks the connection.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSnowflake, DriverDatabricks, DriverDuckDB:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

func (s *DatasetStore) Load(ctx context.Context) (domain.Dataset, error) {
	logger := zerolog.Ctx(ctx)

	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("dataset query failed: %w", err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to close dataset query rows")
		}
	}(rows)

	columns, err := rows.Columns()
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("read columns: %w", err)
	}

	ds := domain.Dataset{Columns: columns, Records: []domain.Record{}}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return domain.Dataset{}, fmt.Errorf("scan row %d: %w", ds.Len(), err)
		}
		rec := make(domain.Record, len(columns))
		for i, c := range columns {
			rec[c] = normalize(values[i])
		}
		ds.Records = append(ds.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return domain.Dataset{}, fmt.Errorf("iterate rows: %w", err)
	}

	logger.Debug().Int("records", ds.Len()).Msg("dataset query loaded")
	return ds, nil
}

// normalize maps driver values onto the JSON-like types records carry.
func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02")
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case int:
		return float64(t)
	case float32:
		return float64(t)
	}
	return v
}
