package domain

import "time"

// AggregateRow is one bucket of a grouped summary.
type AggregateRow struct {
	Key        string
	Spend      float64
	Count      int
	AvgValue   float64
	Percentage float64 // share of the slice total, 0..1
}

// TechnologyStatus is the closed set of landscape classifications.
type TechnologyStatus string

const (
	StatusInstalledBase TechnologyStatus = "Installed Base"
	StatusOpportunity   TechnologyStatus = "Opportunity"
	StatusExplore       TechnologyStatus = "Explore"
	StatusAtRisk        TechnologyStatus = "At Risk"
)

// Statuses lists the buckets in display order.
var Statuses = []TechnologyStatus{
	StatusInstalledBase,
	StatusOpportunity,
	StatusExplore,
	StatusAtRisk,
}

type StatusCount struct {
	Status TechnologyStatus
	Count  int
}

type StatusDistribution struct {
	Buckets      []StatusCount
	Unclassified int
}

type GroupStatus struct {
	Key          string
	Total        int
	Buckets      []StatusCount
	Dominant     TechnologyStatus
	Unclassified int
}

// DistributionRow holds per-vendor counts for one domain. Counts has an entry for every vendor.
type DistributionRow struct {
	Domain string
	Counts map[string]int
}

type VendorDistribution struct {
	Vendors []string
	Rows    []DistributionRow
}

type DateRange struct {
	Start *time.Time
	End   *time.Time
}

type Summary struct {
	Records       int
	TotalRecords  int
	TotalAmount   float64
	DirectAmount  float64
	PartnerAmount float64
	TotalQuantity float64
	Distinct      map[string]int
	DateRange     DateRange
}

// SupportLevel is the licence quantity covered by one support offering.
type SupportLevel struct {
	Level    string
	Quantity float64
}

type SupportCoverage struct {
	Levels []SupportLevel
}

type Opportunities struct {
	WithoutSupport  int
	ExpiringSoon    int
	HighDeployment  int
	ExpiringWindow  time.Duration
	DeploymentRatio float64
}
