package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/de-tools/book-atlas/pkg/store/duckdb"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrTableConflict is returned when a snapshot name maps onto a table owned by another snapshot.
var ErrTableConflict = errors.New("snapshot table already in use")

// Snapshot is a filtered view frozen into a DuckDB table for BI tools.
type Snapshot struct {
	Name    string
	Variant string
	Filters domain.FilterSet
	Dataset domain.Dataset
}

type Info struct {
	ID          string
	Name        string
	Table       string
	Variant     string
	Filters     domain.FilterSet
	RecordCount int
	CreatedAt   time.Time
}

type Store interface {
	Save(ctx context.Context, snap Snapshot) (*Info, error)
	List(ctx context.Context) ([]Info, error)
}

type duckStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &duckStore{
		db:  db,
		now: time.Now,
	}, nil
}

var unsafeIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// TableName derives the table holding a snapshot from its name.
func TableName(name string) string {
	ident := strings.Trim(unsafeIdent.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if ident == "" {
		ident = "unnamed"
	}
	return "snapshot_" + ident
}

// Save replaces the snapshot table and its metadata row atomically. A transaction already
// carried by ctx is joined instead of opening a new one.
func (s *duckStore) Save(ctx context.Context, snap Snapshot) (*Info, error) {
	logger := zerolog.Ctx(ctx)

	if snap.Name == "" {
		return nil, fmt.Errorf("snapshot name is required")
	}
	if len(snap.Dataset.Columns) == 0 {
		return nil, fmt.Errorf("snapshot %q has no columns", snap.Name)
	}

	tx := duckdb.GetTransaction(ctx)
	owned := tx == nil
	if owned {
		var err error
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		defer func() {
			if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
				logger.Warn().Err(err).Msg("failed to rollback snapshot transaction")
			}
		}()
	}

	info := &Info{
		ID:          uuid.NewString(),
		Name:        snap.Name,
		Table:       TableName(snap.Name),
		Variant:     snap.Variant,
		Filters:     snap.Filters.Active(),
		RecordCount: snap.Dataset.Len(),
		CreatedAt:   s.now().UTC(),
	}

	if err := checkOwner(ctx, tx, info.Table, info.Name); err != nil {
		return nil, err
	}

	types := columnTypes(snap.Dataset)
	if err := createTable(ctx, tx, info.Table, snap.Dataset.Columns, types); err != nil {
		return nil, err
	}
	if err := insertRecords(ctx, tx, info.Table, snap.Dataset, types); err != nil {
		return nil, err
	}

	filters, err := json.Marshal(info.Filters)
	if err != nil {
		return nil, fmt.Errorf("marshal filters: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshots (
			name, snapshot_id, table_name, variant, filters, record_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.Name, info.ID, info.Table, info.Variant, string(filters), info.RecordCount, info.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("record snapshot metadata: %w", err)
	}

	if owned {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit snapshot: %w", err)
		}
	}

	logger.Info().
		Str("snapshot", info.Name).
		Str("table", info.Table).
		Int("records", info.RecordCount).
		Msg("snapshot saved")
	return info, nil
}

// checkOwner rejects a save that would drop a table recorded under a different snapshot name.
func checkOwner(ctx context.Context, tx *sql.Tx, table, name string) error {
	var owner string
	err := tx.QueryRowContext(ctx,
		`SELECT name FROM snapshots WHERE table_name = ? AND name <> ? LIMIT 1`, table, name,
	).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("check snapshot table %s: %w", table, err)
	}
	return fmt.Errorf("%w: %s belongs to snapshot %q", ErrTableConflict, table, owner)
}

func (s *duckStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT snapshot_id, name, table_name, variant, filters, record_count, created_at
		FROM snapshots
		ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var (
			info    Info
			variant sql.NullString
			filters sql.NullString
		)
		if err := rows.Scan(&info.ID, &info.Name, &info.Table, &variant, &filters, &info.RecordCount, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		info.Variant = variant.String
		info.Filters = domain.FilterSet{}
		if filters.Valid && filters.String != "" {
			if err := json.Unmarshal([]byte(filters.String), &info.Filters); err != nil {
				return nil, fmt.Errorf("decode filters of %q: %w", info.Name, err)
			}
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

type columnType string

const (
	typeDouble  columnType = "DOUBLE"
	typeVarchar columnType = "VARCHAR"
)

// columnTypes picks DOUBLE for columns where every present value is numeric.
func columnTypes(ds domain.Dataset) map[string]columnType {
	types := make(map[string]columnType, len(ds.Columns))
	for _, c := range ds.Columns {
		t := typeDouble
		present := false
		for _, r := range ds.Records {
			if strings.TrimSpace(r.String(c)) == "" {
				continue
			}
			present = true
			if !r.IsNumber(c) {
				t = typeVarchar
				break
			}
		}
		if !present {
			t = typeVarchar
		}
		types[c] = t
	}
	return types
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func createTable(ctx context.Context, tx *sql.Tx, table string, columns []string, types map[string]columnType) error {
	defs := make([]string, 0, len(columns))
	for _, c := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(c), types[c]))
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	query := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	return nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, table string, ds domain.Dataset, types map[string]columnType) error {
	if ds.Len() == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ds.Columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(table), placeholders))
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(ds.Columns))
	for i, r := range ds.Records {
		for j, c := range ds.Columns {
			args[j] = cellValue(r, c, types[c])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	return nil
}

func cellValue(r domain.Record, field string, t columnType) any {
	s := r.String(field)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if t == typeDouble {
		return r.Number(field)
	}
	return s
}
