package aggregate

import (
	"slices"
	"strings"

	"github.com/de-tools/book-atlas/pkg/models/domain"
)

// ByDomainAndVendor counts records for every (domain, vendor) pair. Domains and vendors are
// listed in first-seen order and every row carries a count for every vendor.
func ByDomainAndVendor(recs []domain.Record, domainField, vendorField string) domain.VendorDistribution {
	var domains, vendors []string
	counts := make(map[string]map[string]int)
	seenVendor := make(map[string]bool)

	for _, r := range recs {
		d := r.GroupKey(domainField)
		v := r.GroupKey(vendorField)
		if _, ok := counts[d]; !ok {
			counts[d] = make(map[string]int)
			domains = append(domains, d)
		}
		if !seenVendor[v] {
			seenVendor[v] = true
			vendors = append(vendors, v)
		}
		counts[d][v]++
	}

	dist := domain.VendorDistribution{
		Vendors: vendors,
		Rows:    make([]domain.DistributionRow, 0, len(domains)),
	}
	for _, d := range domains {
		row := domain.DistributionRow{Domain: d, Counts: make(map[string]int, len(vendors))}
		for _, v := range vendors {
			row.Counts[v] = counts[d][v]
		}
		dist.Rows = append(dist.Rows, row)
	}
	return dist
}

// ParseStatus matches s against the fixed statuses, ignoring case.
func ParseStatus(s string) (domain.TechnologyStatus, bool) {
	s = strings.TrimSpace(s)
	for _, st := range domain.Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// ByStatus counts records into the four fixed buckets. Values outside the set are
// reported as Unclassified rather than opening new buckets.
func ByStatus(recs []domain.Record, statusField string) domain.StatusDistribution {
	counts, unclassified := countStatuses(recs, statusField)
	return domain.StatusDistribution{
		Buckets:      statusBuckets(counts),
		Unclassified: unclassified,
	}
}

// StatusByGroup applies ByStatus per bucket of groupField. Groups are ordered by record count,
// descending. Dominant is the status with the highest count, earliest status on ties.
func StatusByGroup(recs []domain.Record, groupField, statusField string) []domain.GroupStatus {
	grouped := make(map[string][]domain.Record)
	var order []string
	for _, r := range recs {
		key := r.GroupKey(groupField)
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], r)
	}

	out := make([]domain.GroupStatus, 0, len(order))
	for _, key := range order {
		counts, unclassified := countStatuses(grouped[key], statusField)
		gs := domain.GroupStatus{
			Key:          key,
			Total:        len(grouped[key]),
			Buckets:      statusBuckets(counts),
			Unclassified: unclassified,
		}
		best := 0
		for _, st := range domain.Statuses {
			if counts[st] > best {
				best = counts[st]
				gs.Dominant = st
			}
		}
		out = append(out, gs)
	}

	slices.SortStableFunc(out, func(a, b domain.GroupStatus) int {
		return b.Total - a.Total
	})
	return out
}

func countStatuses(recs []domain.Record, statusField string) (map[domain.TechnologyStatus]int, int) {
	counts := make(map[domain.TechnologyStatus]int, len(domain.Statuses))
	unclassified := 0
	for _, r := range recs {
		st, ok := ParseStatus(r.String(statusField))
		if !ok {
			unclassified++
			continue
		}
		counts[st]++
	}
	return counts, unclassified
}

func statusBuckets(counts map[domain.TechnologyStatus]int) []domain.StatusCount {
	buckets := make([]domain.StatusCount, 0, len(domain.Statuses))
	for _, st := range domain.Statuses {
		buckets = append(buckets, domain.StatusCount{Status: st, Count: counts[st]})
	}
	return buckets
}
