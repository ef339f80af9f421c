package aggregate

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/de-tools/book-atlas/pkg/services/filter"
	"github.com/shopspring/decimal"
)

const (
	ExpiringWindow          = 90 * 24 * time.Hour
	HighDeploymentThreshold = 0.8
)

const (
	SupportActive    = "Active S&S"
	SupportSustained = "Sustained Support"
	SupportExtended  = "Extended Support"
	SupportAdvanced  = "Advanced Support"
	SupportNone      = "No Support"
)

// Summarize computes the headline metrics of a view for a variant.
// totalRecords is the size of the unfiltered dataset.
func Summarize(recs []domain.Record, totalRecords int, v domain.Variant) domain.Summary {
	s := domain.Summary{
		Records:      len(recs),
		TotalRecords: totalRecords,
		Distinct:     make(map[string]int, len(v.Distinct)),
	}

	if v.HasAmount() {
		s.TotalAmount = Sum(recs, v.AmountField)
		if v.Channel != "" {
			s.DirectAmount = Sum(filter.Apply(recs, filter.Channel(v.Channel, "direct")), v.AmountField)
			s.PartnerAmount = Sum(filter.Apply(recs, filter.Channel(v.Channel, "partner")), v.AmountField)
		}
	}
	if v.Quantity != "" {
		s.TotalQuantity = Sum(recs, v.Quantity)
	}
	for label, field := range v.Distinct {
		s.Distinct[label] = CountDistinct(recs, field)
	}

	var dateFields []string
	for _, f := range []string{v.StartDate, v.EndDate} {
		if f != "" {
			dateFields = append(dateFields, f)
		}
	}
	s.DateRange = DateSpan(recs, dateFields...)
	return s
}

// Partners summarizes amount and count per partner over partner-channel records.
func Partners(recs []domain.Record, channelField, amountField string) []domain.AggregateRow {
	partnerRecs := filter.Apply(recs, filter.Channel(channelField, "partner"))
	opts := Options{GroupField: channelField, SumField: amountField}
	if amountField == "" {
		opts.SortBy = MetricCount
	}
	return GroupBy(partnerRecs, opts)
}

// CountDistinct counts distinct non-empty values of field.
func CountDistinct(recs []domain.Record, field string) int {
	seen := make(map[string]struct{})
	for _, r := range recs {
		if s := strings.TrimSpace(r.String(field)); s != "" {
			seen[s] = struct{}{}
		}
	}
	return len(seen)
}

// UniqueValues returns the sorted distinct non-empty values of field.
func UniqueValues(recs []domain.Record, field string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, r := range recs {
		s := strings.TrimSpace(r.String(field))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		values = append(values, s)
	}
	slices.Sort(values)
	return values
}

// Percentile returns the nearest-rank percentile (0-100) of the numeric values of field.
func Percentile(recs []domain.Record, field string, p float64) float64 {
	var values []float64
	for _, r := range recs {
		if r.IsNumber(field) {
			values = append(values, r.Number(field))
		}
	}
	if len(values) == 0 {
		return 0
	}
	slices.Sort(values)
	idx := int(math.Ceil(p/100*float64(len(values)))) - 1
	idx = max(0, min(idx, len(values)-1))
	return values[idx]
}

// DateSpan returns the earliest and latest parseable date across fields.
func DateSpan(recs []domain.Record, fields ...string) domain.DateRange {
	var span domain.DateRange
	for _, r := range recs {
		for _, f := range fields {
			t, ok := r.Time(f)
			if !ok {
				continue
			}
			if span.Start == nil || t.Before(*span.Start) {
				start := t
				span.Start = &start
			}
			if span.End == nil || t.After(*span.End) {
				end := t
				span.End = &end
			}
		}
	}
	return span
}

// FindOpportunities counts entitlement records worth a follow-up as of now.
func FindOpportunities(recs []domain.Record, f domain.OpportunityFields, now time.Time) domain.Opportunities {
	opp := domain.Opportunities{
		ExpiringWindow:  ExpiringWindow,
		DeploymentRatio: HighDeploymentThreshold,
	}
	horizon := now.Add(ExpiringWindow)

	for _, r := range recs {
		licensed := r.Number(f.LicenseQuantity)
		if f.SupportQuantity != "" && licensed > 0 && r.Number(f.SupportQuantity) == 0 {
			opp.WithoutSupport++
		}
		if f.SupportEndDate != "" {
			if end, ok := r.Time(f.SupportEndDate); ok && !end.Before(now) && !end.After(horizon) {
				opp.ExpiringSoon++
			}
		}
		if f.DeployedQuantity != "" && licensed > 0 && r.Number(f.DeployedQuantity)/licensed > HighDeploymentThreshold {
			opp.HighDeployment++
		}
	}
	return opp
}

// SupportCoverage sums the quantity under each configured support offering. The No Support
// level collects, per record, the licences left once every offering is subtracted.
func SupportCoverage(recs []domain.Record, f domain.OpportunityFields) domain.SupportCoverage {
	type level struct {
		name  string
		field string
		total decimal.Decimal
	}
	var levels []*level
	for _, l := range []level{
		{name: SupportActive, field: f.SupportQuantity},
		{name: SupportSustained, field: f.SustainedSupport},
		{name: SupportExtended, field: f.ExtendedSupport},
		{name: SupportAdvanced, field: f.AdvancedSupport},
	} {
		if l.field != "" {
			levels = append(levels, &level{name: l.name, field: l.field, total: decimal.Zero})
		}
	}

	uncovered := decimal.Zero
	for _, r := range recs {
		supported := decimal.Zero
		for _, l := range levels {
			q := decimal.NewFromFloat(r.Number(l.field))
			l.total = l.total.Add(q)
			supported = supported.Add(q)
		}
		if f.LicenseQuantity == "" {
			continue
		}
		if licensed := decimal.NewFromFloat(r.Number(f.LicenseQuantity)); licensed.GreaterThan(supported) {
			uncovered = uncovered.Add(licensed.Sub(supported))
		}
	}

	out := domain.SupportCoverage{Levels: make([]domain.SupportLevel, 0, len(levels)+1)}
	for _, l := range levels {
		out.Levels = append(out.Levels, domain.SupportLevel{Level: l.name, Quantity: l.total.InexactFloat64()})
	}
	if f.LicenseQuantity != "" {
		out.Levels = append(out.Levels, domain.SupportLevel{Level: SupportNone, Quantity: uncovered.InexactFloat64()})
	}
	return out
}
