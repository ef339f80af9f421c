package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"gopkg.in/ini.v1"
)

const (
	VariantBookOfBusiness = "book-of-business"
	VariantEntitlements   = "entitlements"
	VariantLandscape      = "landscape"
)

// Registry resolves dashboard variants by name.
type Registry interface {
	GetProfiles() []string
	GetVariant(name string) (domain.Variant, error)
}

type variantRegistry struct {
	variants map[string]domain.Variant
}

// NewRegistry returns the built-in variants, extended or overridden by the sections of the
// ini file at path when path is not empty.
//
//	[book-of-business]
//	source = s3://dashboards/ibm/book.json
//	dimension.portfolio = Portfolio
//	filter.portfolio = exact:Portfolio
func NewRegistry(path string) (Registry, error) {
	reg := &variantRegistry{variants: make(map[string]domain.Variant)}
	for name, v := range builtinVariants() {
		reg.variants[name] = v
	}
	if path == "" {
		return reg, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load variants file: %w", err)
	}
	for _, section := range cfg.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		base, ok := reg.variants[section.Name()]
		if !ok {
			base = domain.Variant{Name: section.Name()}
		}
		v, err := applySection(cloneVariant(base), section)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", section.Name(), err)
		}
		reg.variants[v.Name] = v
	}
	return reg, nil
}

func (r *variantRegistry) GetProfiles() []string {
	return slices.Sorted(maps.Keys(r.variants))
}

func (r *variantRegistry) GetVariant(name string) (domain.Variant, error) {
	v, ok := r.variants[name]
	if !ok {
		return domain.Variant{}, fmt.Errorf("variant %s not found", name)
	}
	return cloneVariant(v), nil
}

func applySection(v domain.Variant, section *ini.Section) (domain.Variant, error) {
	for _, key := range section.Keys() {
		name, value := key.Name(), strings.TrimSpace(key.String())
		prefix, rest, dotted := strings.Cut(name, ".")
		if dotted {
			switch prefix {
			case "dimension":
				v.Dimensions[rest] = value
			case "distinct":
				v.Distinct[rest] = value
			case "filter":
				def, err := parseFilter(rest, value)
				if err != nil {
					return v, err
				}
				v.Filters = upsertFilter(v.Filters, def)
			case "opportunity":
				if err := setOpportunity(&v.Opportunity, rest, value); err != nil {
					return v, err
				}
			default:
				return v, fmt.Errorf("unknown key %q", name)
			}
			continue
		}

		switch name {
		case "title":
			v.Title = value
		case "source":
			v.Source = value
		case "transform":
			v.Transform = value
		case "export_name":
			v.ExportName = value
		case "amount":
			v.AmountField = value
		case "measure":
			v.Measure = value
		case "quantity":
			v.Quantity = value
		case "channel":
			v.Channel = value
		case "status":
			v.Status = value
		case "start_date":
			v.StartDate = value
		case "end_date":
			v.EndDate = value
		case "vendor_domain":
			d, b, ok := strings.Cut(value, ",")
			if !ok {
				return v, fmt.Errorf("vendor_domain must be \"<domain dimension>,<vendor dimension>\"")
			}
			v.VendorDomain = [2]string{strings.TrimSpace(d), strings.TrimSpace(b)}
		default:
			return v, fmt.Errorf("unknown key %q", name)
		}
	}
	return v, nil
}

// parseFilter reads "kind:field" or, for search filters, "search:field,field".
func parseFilter(name, value string) (domain.FilterDef, error) {
	rawKind, fields, ok := strings.Cut(value, ":")
	if !ok {
		return domain.FilterDef{}, fmt.Errorf("filter %s: expected kind:field, got %q", name, value)
	}
	kind, err := domain.ParseFilterKind(strings.TrimSpace(rawKind))
	if err != nil {
		return domain.FilterDef{}, fmt.Errorf("filter %s: %w", name, err)
	}

	def := domain.FilterDef{Name: name, Kind: kind}
	if kind == domain.FilterKindSearch {
		for _, f := range strings.Split(fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				def.Fields = append(def.Fields, f)
			}
		}
		if len(def.Fields) == 0 {
			return domain.FilterDef{}, fmt.Errorf("filter %s: search needs at least one field", name)
		}
		return def, nil
	}

	def.Field = strings.TrimSpace(fields)
	if def.Field == "" {
		return domain.FilterDef{}, fmt.Errorf("filter %s: field is empty", name)
	}
	return def, nil
}

func upsertFilter(defs []domain.FilterDef, def domain.FilterDef) []domain.FilterDef {
	for i := range defs {
		if defs[i].Name == def.Name {
			defs[i] = def
			return defs
		}
	}
	return append(defs, def)
}

func setOpportunity(o *domain.OpportunityFields, key, value string) error {
	switch key {
	case "license_quantity":
		o.LicenseQuantity = value
	case "support_quantity":
		o.SupportQuantity = value
	case "support_end_date":
		o.SupportEndDate = value
	case "deployed_quantity":
		o.DeployedQuantity = value
	case "sustained_support":
		o.SustainedSupport = value
	case "extended_support":
		o.ExtendedSupport = value
	case "advanced_support":
		o.AdvancedSupport = value
	default:
		return fmt.Errorf("unknown opportunity key %q", key)
	}
	return nil
}

func cloneVariant(v domain.Variant) domain.Variant {
	out := v
	out.Dimensions = maps.Clone(v.Dimensions)
	if out.Dimensions == nil {
		out.Dimensions = map[string]string{}
	}
	out.Distinct = maps.Clone(v.Distinct)
	if out.Distinct == nil {
		out.Distinct = map[string]string{}
	}
	out.Filters = slices.Clone(v.Filters)
	for i := range out.Filters {
		out.Filters[i].Fields = slices.Clone(v.Filters[i].Fields)
	}
	return out
}

func builtinVariants() map[string]domain.Variant {
	return map[string]domain.Variant{
		VariantBookOfBusiness: {
			Name:        VariantBookOfBusiness,
			Title:       "IBM Book of Business",
			Source:      "data/book-of-business.json",
			ExportName:  "ibm_book_of_business",
			AmountField: "Annualized Spend ($)",
			Measure:     "Annualized Spend ($)",
			Quantity:    "Quantity",
			Channel:     "Direct or Partner",
			StartDate:   "Start Date",
			EndDate:     "End Date",
			Dimensions: map[string]string{
				"brand":         "IBM Brand",
				"category":      "IBM Category",
				"portfolio":     "Portfolio",
				"domain":        "Domain",
				"product":       "IBM Product",
				"revenueStream": "Revenue Stream",
				"company":       "Company Name",
				"site":          "Site Number",
				"channel":       "Direct or Partner",
			},
			Distinct: map[string]string{
				"companies": "Company Name",
				"sites":     "Site Number",
				"brands":    "IBM Brand",
			},
			Filters: []domain.FilterDef{
				{Name: "revenueStream", Kind: domain.FilterKindExact, Field: "Revenue Stream"},
				{Name: "brand", Kind: domain.FilterKindExact, Field: "IBM Brand"},
				{Name: "channel", Kind: domain.FilterKindChannel, Field: "Direct or Partner"},
				{Name: "search", Kind: domain.FilterKindSearch, Fields: []string{"Company Name", "Site Number", "IBM Product", "IBM Brand", "IBM Category"}},
			},
			VendorDomain: [2]string{"category", "brand"},
		},
		VariantEntitlements: {
			Name:       VariantEntitlements,
			Title:      "Disney Enterprise Entitlements",
			Source:     "data/disney-entitlements.json",
			ExportName: "disney_entitlements",
			Measure:    "Software license or appliance quantity",
			Quantity:   "Software license or appliance quantity",
			EndDate:    "Active S&S end date",
			Dimensions: map[string]string{
				"brand":    "Brand",
				"region":   "CRM region",
				"customer": "Customer name",
				"product":  "Current product",
			},
			Distinct: map[string]string{
				"customers": "Customer name",
				"products":  "Current product",
				"brands":    "Brand",
			},
			Filters: []domain.FilterDef{
				{Name: "brand", Kind: domain.FilterKindExact, Field: "Brand"},
				{Name: "region", Kind: domain.FilterKindExact, Field: "CRM region"},
				{Name: "customer", Kind: domain.FilterKindSubstring, Field: "Customer name"},
				{Name: "product", Kind: domain.FilterKindSubstring, Field: "Current product"},
			},
			Opportunity: domain.OpportunityFields{
				LicenseQuantity:  "Software license or appliance quantity",
				SupportQuantity:  "Active S&S quantity",
				SupportEndDate:   "Active S&S end date",
				DeployedQuantity: "Deployed quantity",
				SustainedSupport: "Sustained Support",
				ExtendedSupport:  "Extended Support",
				AdvancedSupport:  "Advanced Support",
			},
			VendorDomain: [2]string{"region", "brand"},
		},
		VariantLandscape: {
			Name:       VariantLandscape,
			Title:      "Technology Landscape",
			Source:     "data/book-of-business.json",
			Transform:  VariantLandscape,
			ExportName: "technology_landscape",
			Quantity:   "Quantity",
			Channel:    "Direct or Partner",
			Status:     "Status",
			StartDate:  "Start Date",
			EndDate:    "End Date",
			Dimensions: map[string]string{
				"domain":      "Technology Domain",
				"brand":       "IBM Brand",
				"category":    "IBM Category",
				"product":     "IBM Product",
				"channelType": "Channel Type",
				"partner":     "Partner Name",
				"status":      "Status",
				"company":     "Company Name",
			},
			Distinct: map[string]string{
				"vendors":       "IBM Brand",
				"domains":       "Technology Domain",
				"businessUnits": "Company Name",
			},
			Filters: []domain.FilterDef{
				{Name: "domain", Kind: domain.FilterKindExact, Field: "Technology Domain"},
				{Name: "brand", Kind: domain.FilterKindExact, Field: "IBM Brand"},
				{Name: "channel", Kind: domain.FilterKindChannel, Field: "Direct or Partner"},
				{Name: "status", Kind: domain.FilterKindExact, Field: "Status"},
				{Name: "search", Kind: domain.FilterKindSearch, Fields: []string{"Company Name", "IBM Product", "IBM Brand", "Technology Domain"}},
			},
			VendorDomain: [2]string{"domain", "brand"},
		},
	}
}
