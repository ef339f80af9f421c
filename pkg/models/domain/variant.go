package domain

import "fmt"

type FilterKind string

const (
	FilterKindExact     FilterKind = "exact"
	FilterKindSubstring FilterKind = "substring"
	FilterKindSearch    FilterKind = "search"
	FilterKindChannel   FilterKind = "channel"
)

func ParseFilterKind(s string) (FilterKind, error) {
	switch FilterKind(s) {
	case FilterKindExact, FilterKindSubstring, FilterKindSearch, FilterKindChannel:
		return FilterKind(s), nil
	}
	return "", fmt.Errorf("unknown filter kind %q", s)
}

// FilterDef declares a named filter. Search filters use Fields, every other kind uses Field.
type FilterDef struct {
	Name   string
	Kind   FilterKind
	Field  string
	Fields []string
}

// FilterSet maps a filter name to its selected value. An empty value means inactive.
type FilterSet map[string]string

// Active returns a copy holding only the filters with a non-empty value.
func (fs FilterSet) Active() FilterSet {
	out := FilterSet{}
	for k, v := range fs {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// OpportunityFields names the entitlement columns used by opportunity detection and the
// support coverage breakdown. SupportQuantity holds the Active S&S quantity.
type OpportunityFields struct {
	LicenseQuantity  string
	SupportQuantity  string
	SupportEndDate   string
	DeployedQuantity string

	SustainedSupport string
	ExtendedSupport  string
	AdvancedSupport  string
}

// Variant describes how one dashboard reads its dataset.
type Variant struct {
	Name        string
	Title       string
	Source      string
	Transform   string // "" or "landscape"
	ExportName  string
	AmountField string // empty when the variant must never expose money

	// Measure is the field summed by group-bys. Without one, groups rank by record count.
	Measure string

	Quantity  string
	Channel   string
	Status    string
	StartDate string
	EndDate   string

	// Dimensions maps a dimension name (brand, category, domain...) to the record field.
	Dimensions map[string]string

	// Distinct lists the fields counted as distinct values in the summary, keyed by label.
	Distinct map[string]string

	Filters      []FilterDef
	Opportunity  OpportunityFields
	VendorDomain [2]string // dimension names for the domain x vendor distribution
}

// Dimension resolves a dimension name to its field.
func (v Variant) Dimension(name string) (string, bool) {
	field, ok := v.Dimensions[name]
	return field, ok
}

// Filter returns the filter definition with the given name.
func (v Variant) Filter(name string) (FilterDef, bool) {
	for _, f := range v.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return FilterDef{}, false
}

func (v Variant) HasAmount() bool {
	return v.AmountField != ""
}
