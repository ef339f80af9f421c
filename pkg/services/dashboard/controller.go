package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/de-tools/book-atlas/pkg/services/aggregate"
	"github.com/de-tools/book-atlas/pkg/services/export"
	"github.com/de-tools/book-atlas/pkg/services/filter"
	"github.com/de-tools/book-atlas/pkg/services/loader"
	"github.com/de-tools/book-atlas/pkg/services/records"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownFilter    = errors.New("unknown filter")
	ErrUnknownDimension = errors.New("unknown dimension")
)

// Status describes the state of the dashboard data.
type Status struct {
	Variant         string
	Title           string
	Loaded          bool
	RawRecords      int
	FilteredRecords int
	Filters         domain.FilterSet
	LoadedAt        *time.Time
	LastError       string
}

// Controller owns the record store and the active filter set of one dashboard variant.
type Controller struct {
	mu       sync.RWMutex
	variant  domain.Variant
	loader   loader.Loader
	store    *records.Store
	filters  domain.FilterSet
	loadedAt *time.Time
	lastErr  error
	closers  []io.Closer
	now      func() time.Time
}

func NewController(variant domain.Variant, l loader.Loader, closers ...io.Closer) *Controller {
	return &Controller{
		variant: variant,
		loader:  l,
		store:   records.NewStore(),
		filters: domain.FilterSet{},
		closers: closers,
		now:     time.Now,
	}
}

func (c *Controller) Variant() domain.Variant {
	return c.variant
}

// Reload fetches the dataset again. Only the most recently started reload may install its
// result; a failed load leaves the previous data untouched. Active filters are reapplied.
func (c *Controller) Reload(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	token := c.store.BeginLoad()
	ds, err := c.loader.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if c.store.IsLatest(token) {
			c.lastErr = err
		}
		logger.Error().Err(err).Str("variant", c.variant.Name).Msg("dataset load failed")
		return err
	}
	if !c.store.Commit(token, ds) {
		logger.Warn().Uint64("generation", token).Msg("discarding superseded dataset load")
		return nil
	}

	now := c.now()
	c.loadedAt = &now
	c.lastErr = nil
	c.applyLocked()

	raw, filtered := c.store.Len()
	logger.Info().
		Str("variant", c.variant.Name).
		Int("records", raw).
		Int("filtered", filtered).
		Msg("dataset reloaded")
	return nil
}

// SetFilters replaces the active filter set and recomputes the filtered view from raw.
func (c *Controller) SetFilters(set domain.FilterSet) error {
	for name := range set {
		if _, ok := c.variant.Filter(name); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFilter, name)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = set.Active()
	c.applyLocked()
	return nil
}

func (c *Controller) ResetFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = domain.FilterSet{}
	c.store.Reset()
}

func (c *Controller) Filters() domain.FilterSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filters.Active()
}

func (c *Controller) applyLocked() {
	if len(c.filters) == 0 {
		c.store.Reset()
		return
	}
	c.store.SetFiltered(filter.ApplySet(c.store.Raw(), c.variant.Filters, c.filters))
}

// View returns the current view: the filtered records, or every record when the filters
// matched nothing.
func (c *Controller) View() []domain.Record {
	return c.store.CurrentView()
}

// Filtered returns exactly what the active filters retain, possibly nothing.
func (c *Controller) Filtered() []domain.Record {
	return c.store.Filtered()
}

// Dataset returns the filtered records with the dataset columns.
func (c *Controller) Dataset() domain.Dataset {
	return domain.Dataset{Columns: c.store.Columns(), Records: c.store.Filtered()}
}

// Page sorts the current view by column (when set) and returns one page of it with the
// view size.
func (c *Controller) Page(offset, limit int, column string, desc bool) ([]domain.Record, int) {
	view := c.View()
	if column != "" {
		view = records.Sort(view, column, desc)
	}
	return records.Page(view, offset, limit), len(view)
}

func (c *Controller) field(dimension string) (string, error) {
	field, ok := c.variant.Dimension(dimension)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDimension, dimension)
	}
	return field, nil
}

func (c *Controller) groupOptions(field string) aggregate.Options {
	opts := aggregate.Options{GroupField: field, SumField: c.variant.Measure}
	if c.variant.Measure == "" {
		opts.SortBy = aggregate.MetricCount
	}
	return opts
}

// Aggregate groups the filtered view by dimension. top > 0 keeps the first top rows only.
func (c *Controller) Aggregate(dimension string, top int) ([]domain.AggregateRow, error) {
	field, err := c.field(dimension)
	if err != nil {
		return nil, err
	}
	opts := c.groupOptions(field)
	if top > 0 {
		return aggregate.TopN(c.Filtered(), opts, top), nil
	}
	return aggregate.GroupBy(c.Filtered(), opts), nil
}

func (c *Controller) Partners() []domain.AggregateRow {
	if c.variant.Channel == "" {
		return []domain.AggregateRow{}
	}
	return aggregate.Partners(c.Filtered(), c.variant.Channel, c.variant.Measure)
}

func (c *Controller) VendorDistribution() (domain.VendorDistribution, error) {
	domainField, err := c.field(c.variant.VendorDomain[0])
	if err != nil {
		return domain.VendorDistribution{}, err
	}
	vendorField, err := c.field(c.variant.VendorDomain[1])
	if err != nil {
		return domain.VendorDistribution{}, err
	}
	return aggregate.ByDomainAndVendor(c.Filtered(), domainField, vendorField), nil
}

func (c *Controller) StatusDistribution() domain.StatusDistribution {
	return aggregate.ByStatus(c.Filtered(), c.variant.Status)
}

func (c *Controller) StatusByGroup(dimension string) ([]domain.GroupStatus, error) {
	field, err := c.field(dimension)
	if err != nil {
		return nil, err
	}
	return aggregate.StatusByGroup(c.Filtered(), field, c.variant.Status), nil
}

func (c *Controller) Summary() domain.Summary {
	raw, _ := c.store.Len()
	return aggregate.Summarize(c.Filtered(), raw, c.variant)
}

// Percentile of the measure over the filtered view, p in [0, 100].
func (c *Controller) Percentile(p float64) float64 {
	if c.variant.Measure == "" {
		return 0
	}
	return aggregate.Percentile(c.Filtered(), c.variant.Measure, p)
}

func (c *Controller) Opportunities() domain.Opportunities {
	return aggregate.FindOpportunities(c.Filtered(), c.variant.Opportunity, c.now())
}

// SupportCoverage breaks the filtered view's licences down by support offering.
func (c *Controller) SupportCoverage() domain.SupportCoverage {
	return aggregate.SupportCoverage(c.Filtered(), c.variant.Opportunity)
}

// Options lists the values a dimension takes across the whole dataset.
func (c *Controller) Options(dimension string) ([]string, error) {
	field, err := c.field(dimension)
	if err != nil {
		return nil, err
	}
	return aggregate.UniqueValues(c.store.Raw(), field), nil
}

// ExportFilename names a CSV export made now.
func (c *Controller) ExportFilename() string {
	return export.Filename(c.variant.ExportName, c.now())
}

// Export writes the filtered view as CSV. It returns export.ErrNoData when nothing matches.
func (c *Controller) Export(w io.Writer) error {
	ds := c.Dataset()
	return export.WriteCSV(w, ds.Columns, ds.Records)
}

func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw, filtered := c.store.Len()
	st := Status{
		Variant:         c.variant.Name,
		Title:           c.variant.Title,
		Loaded:          c.store.Loaded(),
		RawRecords:      raw,
		FilteredRecords: filtered,
		Filters:         c.filters.Active(),
		LoadedAt:        c.loadedAt,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

func (c *Controller) Close() error {
	var errs []error
	for _, cl := range c.closers {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}
