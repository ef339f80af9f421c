package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/de-tools/book-atlas/pkg/models/domain"
)

var ErrNoData = errors.New("no data to export")

const timestampLayout = "2006-01-02T15-04-05"

// Filename builds "<prefix>_<timestamp>.csv" from a UTC timestamp without separators that
// are unsafe in file names.
func Filename(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = "export"
	}
	return fmt.Sprintf("%s_%s.csv", prefix, now.UTC().Format(timestampLayout))
}

// WriteCSV writes a header row and one row per record. Every cell is quoted, embedded quotes
// are doubled and null or missing values are empty.
func WriteCSV(w io.Writer, columns []string, recs []domain.Record) error {
	if len(recs) == 0 {
		return ErrNoData
	}
	if len(columns) == 0 {
		columns = recordColumns(recs)
	}

	bw := bufio.NewWriter(w)
	writeRow(bw, columns)
	row := make([]string, len(columns))
	for _, r := range recs {
		for i, c := range columns {
			row[i] = r.String(c)
		}
		writeRow(bw, row)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeRow(w *bufio.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(c, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}

func recordColumns(recs []domain.Record) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, r := range recs {
		for k := range r {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	slices.Sort(cols)
	return cols
}
