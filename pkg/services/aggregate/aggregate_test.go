package aggregate

import (
	"fmt"
	"testing"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func brandOpts() Options {
	return Options{GroupField: "brand", SumField: "spend"}
}

func TestGroupBy_SortsDescendingBySpend(t *testing.T) {
	recs := []domain.Record{
		{"brand": "A", "spend": 100.0},
		{"brand": "B", "spend": 200.0},
		{"brand": "A", "spend": 50.0},
	}

	rows := GroupBy(recs, brandOpts())

	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].Key)
	assert.Equal(t, 200.0, rows[0].Spend)
	assert.Equal(t, 1, rows[0].Count)
	assert.InDelta(t, 0.571, rows[0].Percentage, 0.001)
	assert.Equal(t, "A", rows[1].Key)
	assert.Equal(t, 150.0, rows[1].Spend)
	assert.Equal(t, 2, rows[1].Count)
	assert.Equal(t, 75.0, rows[1].AvgValue)
	assert.InDelta(t, 0.429, rows[1].Percentage, 0.001)
}

func TestGroupBy_MissingKeyIsUnknown(t *testing.T) {
	recs := []domain.Record{
		{"brand": "A", "spend": 10.0},
		{"spend": 30.0},
		{"brand": "", "spend": "5"},
		{"brand": nil, "spend": 1.0},
	}

	rows := GroupBy(recs, brandOpts())

	require.Len(t, rows, 2)
	assert.Equal(t, domain.UnknownKey, rows[0].Key)
	assert.Equal(t, 36.0, rows[0].Spend)
	assert.Equal(t, 3, rows[0].Count)
}

func TestGroupBy_DirtyNumbersCoerceToZero(t *testing.T) {
	recs := []domain.Record{
		{"brand": "A", "spend": "n/a"},
		{"brand": "A", "spend": " 12.5 "},
		{"brand": "A", "spend": true},
		{"brand": "A"},
	}

	rows := GroupBy(recs, brandOpts())

	require.Len(t, rows, 1)
	assert.Equal(t, 12.5, rows[0].Spend)
	assert.Equal(t, 4, rows[0].Count)
	assert.InDelta(t, 1.0, rows[0].Percentage, tolerance)
}

func TestGroupBy_EmptyInput(t *testing.T) {
	rows := GroupBy(nil, brandOpts())
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
	assert.Empty(t, TopN(nil, brandOpts(), 3))
}

func TestGroupBy_ZeroTotalGivesZeroPercentages(t *testing.T) {
	recs := []domain.Record{{"brand": "A"}, {"brand": "B", "spend": 0.0}}

	for _, row := range GroupBy(recs, brandOpts()) {
		assert.Equal(t, 0.0, row.Percentage)
	}
}

func TestGroupBy_TiesKeepFirstSeenOrder(t *testing.T) {
	recs := []domain.Record{
		{"brand": "C", "spend": 1.0},
		{"brand": "A", "spend": 1.0},
		{"brand": "B", "spend": 1.0},
	}

	rows := GroupBy(recs, brandOpts())

	assert.Equal(t, []string{"C", "A", "B"}, keys(rows))
}

func TestGroupBy_SortByCount(t *testing.T) {
	recs := []domain.Record{
		{"brand": "A"},
		{"brand": "B"},
		{"brand": "B"},
	}

	rows := GroupBy(recs, Options{GroupField: "brand", SortBy: MetricCount})
	assert.Equal(t, []string{"B", "A"}, keys(rows))

	rows = GroupBy(recs, Options{GroupField: "brand", SortBy: MetricCount, Ascending: true})
	assert.Equal(t, []string{"A", "B"}, keys(rows))
}

func TestGroupBy_Invariants(t *testing.T) {
	var recs []domain.Record
	for i := 0; i < 200; i++ {
		recs = append(recs, domain.Record{
			"brand": fmt.Sprintf("brand-%d", i%7),
			"spend": float64(i) * 1.13,
		})
	}

	rows := GroupBy(recs, brandOpts())

	var spend, pct float64
	count := 0
	for _, row := range rows {
		spend += row.Spend
		pct += row.Percentage
		count += row.Count
	}
	assert.InDelta(t, Sum(recs, "spend"), spend, 1e-6)
	assert.InDelta(t, 1.0, pct, 1e-9)
	assert.Equal(t, len(recs), count)
}

func TestTopN(t *testing.T) {
	var recs []domain.Record
	for i := 0; i < 15; i++ {
		recs = append(recs, domain.Record{"brand": fmt.Sprintf("b%02d", i), "spend": float64(i + 1)})
	}
	full := GroupBy(recs, brandOpts())

	tests := []struct {
		name     string
		n        int
		expected int
	}{
		{name: "default is ten", n: 0, expected: 10},
		{name: "smaller than groups", n: 3, expected: 3},
		{name: "larger than groups", n: 50, expected: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top := TopN(recs, brandOpts(), tt.n)
			require.Len(t, top, tt.expected)
			assert.Equal(t, full[:tt.expected], top, "top-N must be a prefix of the full aggregation")
		})
	}
}

func TestSum(t *testing.T) {
	recs := []domain.Record{{"v": 0.1}, {"v": 0.2}, {"v": "bad"}, {}}
	assert.InDelta(t, 0.3, Sum(recs, "v"), tolerance)
	assert.Equal(t, 0.0, Sum(nil, "v"))
}

func keys(rows []domain.AggregateRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Key)
	}
	return out
}
