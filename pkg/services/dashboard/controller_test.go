package dashboard

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/de-tools/book-atlas/pkg/services/export"
	"github.com/de-tools/book-atlas/pkg/services/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVariant() domain.Variant {
	return domain.Variant{
		Name:        "book",
		Title:       "Book of Business",
		ExportName:  "book",
		AmountField: "spend",
		Measure:     "spend",
		Quantity:    "qty",
		Channel:     "channel",
		Status:      "status",
		Dimensions: map[string]string{
			"brand":   "brand",
			"company": "company",
			"domain":  "domain",
		},
		Distinct: map[string]string{"companies": "company"},
		Filters: []domain.FilterDef{
			{Name: "brand", Kind: domain.FilterKindExact, Field: "brand"},
			{Name: "channel", Kind: domain.FilterKindChannel, Field: "channel"},
			{Name: "search", Kind: domain.FilterKindSearch, Fields: []string{"company", "product"}},
		},
		VendorDomain: [2]string{"domain", "brand"},
	}
}

func testDataset() domain.Dataset {
	return domain.Dataset{
		Columns: []string{"company", "brand", "spend", "channel", "domain", "status"},
		Records: []domain.Record{
			{"company": "Acme Corp", "brand": "A", "spend": 100.0, "channel": "Direct", "domain": "Data", "status": "Installed Base"},
			{"company": "Other Co", "brand": "B", "spend": 200.0, "channel": "Arrow", "domain": "Data", "status": "Opportunity"},
			{"company": "Acme Corp", "brand": "A", "spend": 50.0, "channel": "TD Synnex", "domain": "Security"},
		},
	}
}

func staticLoader(ds domain.Dataset) loader.Loader {
	return loader.Func(func(context.Context) (domain.Dataset, error) {
		return ds, nil
	})
}

func loadedController(t *testing.T) *Controller {
	t.Helper()
	c := NewController(testVariant(), staticLoader(testDataset()))
	require.NoError(t, c.Reload(context.Background()))
	return c
}

func TestController_Reload(t *testing.T) {
	c := loadedController(t)

	st := c.Status()
	assert.True(t, st.Loaded)
	assert.Equal(t, 3, st.RawRecords)
	assert.Equal(t, 3, st.FilteredRecords)
	assert.NotNil(t, st.LoadedAt)
	assert.Empty(t, st.LastError)
}

func TestController_ReloadFailureKeepsPreviousData(t *testing.T) {
	fail := false
	c := NewController(testVariant(), loader.Func(func(context.Context) (domain.Dataset, error) {
		if fail {
			return domain.Dataset{}, loader.ErrLoad
		}
		return testDataset(), nil
	}))
	require.NoError(t, c.Reload(context.Background()))

	fail = true
	err := c.Reload(context.Background())

	assert.ErrorIs(t, err, loader.ErrLoad)
	st := c.Status()
	assert.Equal(t, 3, st.RawRecords)
	assert.Equal(t, loader.ErrLoad.Error(), st.LastError)
}

func TestController_StaleReloadIsDiscarded(t *testing.T) {
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	stale := domain.Dataset{Records: []domain.Record{{"company": "stale"}}}
	fresh := testDataset()

	calls := 0
	var mu sync.Mutex
	c := NewController(testVariant(), loader.Func(func(context.Context) (domain.Dataset, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(slowStarted)
			<-releaseSlow
			return stale, nil
		}
		return fresh, nil
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, c.Reload(context.Background()))
	}()

	<-slowStarted
	require.NoError(t, c.Reload(context.Background()))
	close(releaseSlow)
	wg.Wait()

	assert.Len(t, c.View(), 3, "the newer load must win")
}

func TestController_SetFilters(t *testing.T) {
	c := loadedController(t)

	tests := []struct {
		name      string
		filters   domain.FilterSet
		companies []string
		expectErr error
	}{
		{name: "search", filters: domain.FilterSet{"search": "acme"}, companies: []string{"Acme Corp", "Acme Corp"}},
		{name: "direct channel", filters: domain.FilterSet{"channel": "Direct"}, companies: []string{"Acme Corp"}},
		{name: "and across filters", filters: domain.FilterSet{"brand": "a", "channel": "partner"}, companies: []string{"Acme Corp"}},
		{name: "empty values are inactive", filters: domain.FilterSet{"brand": ""}, companies: []string{"Acme Corp", "Other Co", "Acme Corp"}},
		{name: "unknown filter", filters: domain.FilterSet{"colour": "red"}, expectErr: ErrUnknownFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.SetFilters(tt.filters)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			var got []string
			for _, r := range c.Filtered() {
				got = append(got, r.String("company"))
			}
			assert.Equal(t, tt.companies, got)
		})
	}
}

func TestController_OverRestrictiveFilter(t *testing.T) {
	c := loadedController(t)
	require.NoError(t, c.SetFilters(domain.FilterSet{"brand": "Z"}))

	assert.Empty(t, c.Filtered())
	assert.Len(t, c.View(), 3, "current view falls back to raw")
	assert.Empty(t, c.Summary().Records, "aggregations follow the filtered view")

	err := c.Export(&bytes.Buffer{})
	assert.ErrorIs(t, err, export.ErrNoData)
}

func TestController_FiltersSurviveReload(t *testing.T) {
	c := loadedController(t)
	require.NoError(t, c.SetFilters(domain.FilterSet{"brand": "B"}))

	require.NoError(t, c.Reload(context.Background()))

	assert.Len(t, c.Filtered(), 1)
	assert.Equal(t, domain.FilterSet{"brand": "B"}, c.Filters())
}

func TestController_ResetFilters(t *testing.T) {
	c := loadedController(t)
	require.NoError(t, c.SetFilters(domain.FilterSet{"brand": "B"}))

	c.ResetFilters()

	assert.Len(t, c.Filtered(), 3)
	assert.Empty(t, c.Filters())
}

func TestController_Aggregate(t *testing.T) {
	c := loadedController(t)

	rows, err := c.Aggregate("brand", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].Key)
	assert.InDelta(t, 0.571, rows[0].Percentage, 0.001)
	assert.Equal(t, "A", rows[1].Key)
	assert.Equal(t, 150.0, rows[1].Spend)

	top, err := c.Aggregate("brand", 1)
	require.NoError(t, err)
	assert.Equal(t, rows[:1], top)

	_, err = c.Aggregate("colour", 0)
	assert.ErrorIs(t, err, ErrUnknownDimension)
}

func TestController_AggregateByCountWithoutMeasure(t *testing.T) {
	v := testVariant()
	v.AmountField, v.Measure = "", ""
	c := NewController(v, staticLoader(testDataset()))
	require.NoError(t, c.Reload(context.Background()))

	rows, err := c.Aggregate("brand", 0)
	require.NoError(t, err)
	assert.Equal(t, "A", rows[0].Key)
	assert.Equal(t, 2, rows[0].Count)
	assert.Zero(t, rows[0].Spend)
	assert.Zero(t, c.Summary().TotalAmount)
}

func TestController_Distributions(t *testing.T) {
	c := loadedController(t)

	dist, err := c.VendorDistribution()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, dist.Vendors)
	require.Len(t, dist.Rows, 2)
	assert.Equal(t, map[string]int{"A": 1, "B": 1}, dist.Rows[0].Counts)

	status := c.StatusDistribution()
	assert.Equal(t, 1, status.Unclassified)

	groups, err := c.StatusByGroup("domain")
	require.NoError(t, err)
	assert.Equal(t, "Data", groups[0].Key)

	partners := c.Partners()
	require.Len(t, partners, 2)
	assert.Equal(t, "Arrow", partners[0].Key)
	assert.Equal(t, "TD Synnex", partners[1].Key)
}

func TestController_SummaryAndOptions(t *testing.T) {
	c := loadedController(t)
	require.NoError(t, c.SetFilters(domain.FilterSet{"search": "acme"}))

	s := c.Summary()
	assert.Equal(t, 2, s.Records)
	assert.Equal(t, 3, s.TotalRecords)
	assert.Equal(t, 150.0, s.TotalAmount)
	assert.Equal(t, 100.0, s.DirectAmount)
	assert.Equal(t, 50.0, s.PartnerAmount)
	assert.Equal(t, 1, s.Distinct["companies"])

	opts, err := c.Options("company")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Corp", "Other Co"}, opts, "options come from the whole dataset")

	assert.Equal(t, 100.0, c.Percentile(100))
}

func TestController_PageSortsView(t *testing.T) {
	c := loadedController(t)

	page, total := c.Page(0, 2, "spend", true)

	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, 200.0, page[0]["spend"])
	assert.Equal(t, 100.0, page[1]["spend"])
}

func TestController_Export(t *testing.T) {
	c := loadedController(t)
	c.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	require.NoError(t, c.SetFilters(domain.FilterSet{"brand": "B"}))

	var buf bytes.Buffer
	require.NoError(t, c.Export(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"company","brand","spend","channel","domain","status"`, lines[0])
	assert.Equal(t, "book_2024-05-01T09-30-00.csv", c.ExportFilename())
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestController_Close(t *testing.T) {
	closed := 0
	c := NewController(testVariant(), staticLoader(testDataset()),
		closerFunc(func() error { closed++; return nil }),
		closerFunc(func() error { closed++; return errors.New("boom") }),
	)

	err := c.Close()

	assert.Error(t, err)
	assert.Equal(t, 2, closed)
}
