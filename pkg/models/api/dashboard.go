package api

import "time"

type Error struct {
	Error string `json:"error"`
}

type Status struct {
	Variant         string            `json:"variant"`
	Title           string            `json:"title"`
	Loaded          bool              `json:"loaded"`
	RawRecords      int               `json:"raw_records"`
	FilteredRecords int               `json:"filtered_records"`
	Filters         map[string]string `json:"filters"`
	LoadedAt        *time.Time        `json:"loaded_at,omitempty"`
	LastError       string            `json:"last_error,omitempty"`
}

type Records struct {
	Total   int              `json:"total"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
	Records []map[string]any `json:"records"`
}

type AggregateRow struct {
	Key        string   `json:"key"`
	Spend      *float64 `json:"spend,omitempty"`
	Count      int      `json:"count"`
	AvgValue   *float64 `json:"avg_value,omitempty"`
	Percentage float64  `json:"percentage"`
}

type Aggregation struct {
	Dimension string         `json:"dimension"`
	Rows      []AggregateRow `json:"rows"`
}

type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Summary omits every monetary figure for variants that carry no amount.
type Summary struct {
	Records       int            `json:"records"`
	TotalRecords  int            `json:"total_records"`
	TotalAmount   *float64       `json:"total_amount,omitempty"`
	DirectAmount  *float64       `json:"direct_amount,omitempty"`
	PartnerAmount *float64       `json:"partner_amount,omitempty"`
	TotalQuantity float64        `json:"total_quantity"`
	Distinct      map[string]int `json:"distinct"`
	DateRange     DateRange      `json:"date_range"`
}

type Percentile struct {
	P     float64 `json:"p"`
	Value float64 `json:"value"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type StatusDistribution struct {
	Buckets      []StatusCount `json:"buckets"`
	Unclassified int           `json:"unclassified"`
}

type GroupStatus struct {
	Key          string        `json:"key"`
	Total        int           `json:"total"`
	Buckets      []StatusCount `json:"buckets"`
	Dominant     string        `json:"dominant"`
	Unclassified int           `json:"unclassified"`
}

type DistributionRow struct {
	Domain string         `json:"domain"`
	Counts map[string]int `json:"counts"`
}

type VendorDistribution struct {
	Vendors []string          `json:"vendors"`
	Rows    []DistributionRow `json:"rows"`
}

type Opportunities struct {
	WithoutSupport     int     `json:"without_support"`
	ExpiringSoon       int     `json:"expiring_soon"`
	HighDeployment     int     `json:"high_deployment"`
	ExpiringWindowDays int     `json:"expiring_window_days"`
	DeploymentRatio    float64 `json:"deployment_ratio"`
}

type SupportLevel struct {
	Level    string  `json:"level"`
	Quantity float64 `json:"quantity"`
}

type SupportCoverage struct {
	Levels []SupportLevel `json:"levels"`
}

type Options struct {
	Dimension string   `json:"dimension"`
	Values    []string `json:"values"`
}
