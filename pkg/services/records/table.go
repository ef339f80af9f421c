package records

import (
	"slices"
	"strings"

	"github.com/de-tools/book-atlas/pkg/models/domain"
)

// Sort returns a copy of recs ordered by column. Two numeric values compare as numbers,
// anything else compares as lower-cased text. Equal rows keep their order.
func Sort(recs []domain.Record, column string, desc bool) []domain.Record {
	out := slices.Clone(recs)
	slices.SortStableFunc(out, func(a, b domain.Record) int {
		c := compare(a, b, column)
		if desc {
			return -c
		}
		return c
	})
	return out
}

func compare(a, b domain.Record, column string) int {
	if a.IsNumber(column) && b.IsNumber(column) {
		x, y := a.Number(column), b.Number(column)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a.String(column)), strings.ToLower(b.String(column)))
}

// Page returns at most limit records starting at offset. A non-positive limit means the rest.
func Page(recs []domain.Record, offset, limit int) []domain.Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(recs) {
		return []domain.Record{}
	}
	end := len(recs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return slices.Clone(recs[offset:end])
}
