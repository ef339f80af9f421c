package aggregate

import (
	"slices"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// DefaultTopN is the row limit used by the top-N variant when none is given.
const DefaultTopN = 10

type Metric string

const (
	MetricSpend Metric = "spend"
	MetricCount Metric = "count"
)

// Options parameterize a grouped summary.
type Options struct {
	GroupField string
	SumField   string // empty: spend is 0 for every row
	SortBy     Metric // default MetricSpend
	Ascending  bool
}

type bucket struct {
	key   string
	spend decimal.Decimal
	count int
}

// GroupBy partitions recs by opts.GroupField and summarizes each bucket.
// Missing or empty keys land in domain.UnknownKey. Rows are ordered by the sort metric,
// descending unless Ascending is set; ties keep first-seen bucket order.
func GroupBy(recs []domain.Record, opts Options) []domain.AggregateRow {
	index := make(map[string]int)
	var buckets []*bucket
	total := decimal.Zero

	for _, r := range recs {
		key := r.GroupKey(opts.GroupField)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, &bucket{key: key, spend: decimal.Zero})
		}
		b := buckets[i]
		b.count++
		if opts.SumField != "" {
			v := decimal.NewFromFloat(r.Number(opts.SumField))
			b.spend = b.spend.Add(v)
			total = total.Add(v)
		}
	}

	rows := make([]domain.AggregateRow, 0, len(buckets))
	for _, b := range buckets {
		spend := b.spend.InexactFloat64()
		row := domain.AggregateRow{
			Key:   b.key,
			Spend: spend,
			Count: b.count,
		}
		if b.count > 0 {
			row.AvgValue = b.spend.Div(decimal.NewFromInt(int64(b.count))).InexactFloat64()
		}
		if total.IsPositive() {
			row.Percentage = b.spend.Div(total).InexactFloat64()
		}
		rows = append(rows, row)
	}

	sortRows(rows, opts.SortBy, opts.Ascending)
	return rows
}

// TopN is GroupBy truncated to the first n rows (DefaultTopN when n <= 0).
// Percentages stay relative to the whole slice.
func TopN(recs []domain.Record, opts Options, n int) []domain.AggregateRow {
	if n <= 0 {
		n = DefaultTopN
	}
	rows := GroupBy(recs, opts)
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// Sum adds field over recs; unparseable values count as 0.
func Sum(recs []domain.Record, field string) float64 {
	total := decimal.Zero
	for _, r := range recs {
		total = total.Add(decimal.NewFromFloat(r.Number(field)))
	}
	return total.InexactFloat64()
}

func sortRows(rows []domain.AggregateRow, metric Metric, ascending bool) {
	slices.SortStableFunc(rows, func(a, b domain.AggregateRow) int {
		var c int
		if metric == MetricCount {
			c = a.Count - b.Count
		} else {
			c = compareFloat(a.Spend, b.Spend)
		}
		if ascending {
			return c
		}
		return -c
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
