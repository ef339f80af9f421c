package adapters

import (
	"time"

	"github.com/de-tools/book-atlas/pkg/models/api"
	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/de-tools/book-atlas/pkg/services/dashboard"
)

func amount(v float64, withAmounts bool) *float64 {
	if !withAmounts {
		return nil
	}
	return &v
}

func MapStatusDomainToApi(s dashboard.Status) api.Status {
	return api.Status{
		Variant:         s.Variant,
		Title:           s.Title,
		Loaded:          s.Loaded,
		RawRecords:      s.RawRecords,
		FilteredRecords: s.FilteredRecords,
		Filters:         s.Filters,
		LoadedAt:        s.LoadedAt,
		LastError:       s.LastError,
	}
}

func MapRecordsDomainToApi(recs []domain.Record) []map[string]any {
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, r)
	}
	return out
}

// MapAggregateRowsDomainToApi drops spend and average when the variant exposes no amount.
func MapAggregateRowsDomainToApi(rows []domain.AggregateRow, withAmounts bool) []api.AggregateRow {
	out := make([]api.AggregateRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, api.AggregateRow{
			Key:        r.Key,
			Spend:      amount(r.Spend, withAmounts),
			Count:      r.Count,
			AvgValue:   amount(r.AvgValue, withAmounts),
			Percentage: r.Percentage,
		})
	}
	return out
}

func MapSummaryDomainToApi(s domain.Summary, withAmounts bool) api.Summary {
	return api.Summary{
		Records:       s.Records,
		TotalRecords:  s.TotalRecords,
		TotalAmount:   amount(s.TotalAmount, withAmounts),
		DirectAmount:  amount(s.DirectAmount, withAmounts),
		PartnerAmount: amount(s.PartnerAmount, withAmounts),
		TotalQuantity: s.TotalQuantity,
		Distinct:      s.Distinct,
		DateRange: api.DateRange{
			Start: s.DateRange.Start,
			End:   s.DateRange.End,
		},
	}
}

func mapStatusCounts(buckets []domain.StatusCount) []api.StatusCount {
	out := make([]api.StatusCount, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, api.StatusCount{Status: string(b.Status), Count: b.Count})
	}
	return out
}

func MapStatusDistributionDomainToApi(d domain.StatusDistribution) api.StatusDistribution {
	return api.StatusDistribution{
		Buckets:      mapStatusCounts(d.Buckets),
		Unclassified: d.Unclassified,
	}
}

func MapGroupStatusesDomainToApi(groups []domain.GroupStatus) []api.GroupStatus {
	out := make([]api.GroupStatus, 0, len(groups))
	for _, g := range groups {
		out = append(out, api.GroupStatus{
			Key:          g.Key,
			Total:        g.Total,
			Buckets:      mapStatusCounts(g.Buckets),
			Dominant:     string(g.Dominant),
			Unclassified: g.Unclassified,
		})
	}
	return out
}

func MapVendorDistributionDomainToApi(d domain.VendorDistribution) api.VendorDistribution {
	rows := make([]api.DistributionRow, 0, len(d.Rows))
	for _, r := range d.Rows {
		rows = append(rows, api.DistributionRow{Domain: r.Domain, Counts: r.Counts})
	}
	vendors := d.Vendors
	if vendors == nil {
		vendors = []string{}
	}
	return api.VendorDistribution{Vendors: vendors, Rows: rows}
}

func MapSupportCoverageDomainToApi(s domain.SupportCoverage) api.SupportCoverage {
	levels := make([]api.SupportLevel, 0, len(s.Levels))
	for _, l := range s.Levels {
		levels = append(levels, api.SupportLevel{Level: l.Level, Quantity: l.Quantity})
	}
	return api.SupportCoverage{Levels: levels}
}

func MapOpportunitiesDomainToApi(o domain.Opportunities) api.Opportunities {
	return api.Opportunities{
		WithoutSupport:     o.WithoutSupport,
		ExpiringSoon:       o.ExpiringSoon,
		HighDeployment:     o.HighDeployment,
		ExpiringWindowDays: int(o.ExpiringWindow / (24 * time.Hour)),
		DeploymentRatio:    o.DeploymentRatio,
	}
}
