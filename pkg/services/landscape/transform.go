package landscape

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/de-tools/book-atlas/pkg/services/aggregate"
	"github.com/de-tools/book-atlas/pkg/services/filter"
)

const (
	DomainField      = "Technology Domain"
	ChannelTypeField = "Channel Type"
	PartnerNameField = "Partner Name"
	StatusField      = "Status"

	OtherDomain   = "Other"
	NotApplicable = "N/A"
)

var domainMapping = map[string]string{
	"Data & AI":               "Data & Analytics",
	"Automation":              "Automation & Integration",
	"Cloud Pak":               "Cloud & Infrastructure",
	"Security":                "Security & Compliance",
	"Integration":             "Automation & Integration",
	"Transaction Processing":  "Applications & Middleware",
	"Infrastructure":          "Cloud & Infrastructure",
	"Sustainability Software": "Sustainability & ESG",
}

var financialKeywords = []string{
	"spend", "cost", "price", "revenue", "budget", "acv", "tcv",
	"annualized", "payment", "invoice", "billing", "$", "€", "£", "¥",
}

// Fields names the book-of-business columns the landscape view is built from.
type Fields struct {
	Company       string
	Site          string
	Category      string
	Brand         string
	Product       string
	Channel       string
	RevenueStream string
	StartDate     string
	EndDate       string
	Quantity      string
}

var DefaultFields = Fields{
	Company:       "Company Name",
	Site:          "Site Number",
	Category:      "IBM Category",
	Brand:         "IBM Brand",
	Product:       "IBM Product",
	Channel:       "Direct or Partner",
	RevenueStream: "Revenue Stream",
	StartDate:     "Start Date",
	EndDate:       "End Date",
	Quantity:      "Quantity",
}

// DomainFor maps a brand to its technology domain.
func DomainFor(brand string) string {
	if d, ok := domainMapping[strings.TrimSpace(brand)]; ok {
		return d
	}
	return OtherDomain
}

// IsFinancial reports whether a field name carries monetary data.
func IsFinancial(field string) bool {
	lower := strings.ToLower(field)
	for _, kw := range financialKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// StatusSource maps a product name to its technology status.
type StatusSource map[string]domain.TechnologyStatus

// LoadStatusSource reads a JSON object of product -> status. Unknown statuses are rejected.
func LoadStatusSource(path string) (StatusSource, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read status file: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode status file: %w", err)
	}
	src := make(StatusSource, len(raw))
	for product, s := range raw {
		st, ok := aggregate.ParseStatus(s)
		if !ok {
			return nil, fmt.Errorf("product %q: unknown status %q", product, s)
		}
		src[strings.TrimSpace(product)] = st
	}
	return src, nil
}

// AssignStatus resolves the status of a landscape entry. The explicit source wins, then the
// status already on the record; entries with a channel are installed, the rest are to explore.
func AssignStatus(src StatusSource, product, current, channel string) domain.TechnologyStatus {
	if st, ok := src[strings.TrimSpace(product)]; ok {
		return st
	}
	if st, ok := aggregate.ParseStatus(current); ok {
		return st
	}
	if strings.TrimSpace(channel) != "" {
		return domain.StatusInstalledBase
	}
	return domain.StatusExplore
}

type Transformer struct {
	fields   Fields
	statuses StatusSource
}

func NewTransformer(fields Fields, statuses StatusSource) *Transformer {
	return &Transformer{fields: fields, statuses: statuses}
}

// Transform rebuilds every record with the landscape columns only. Columns whose name looks
// financial never survive, even when they are on the copy list.
func (t *Transformer) Transform(ds domain.Dataset) domain.Dataset {
	f := t.fields
	columns := []string{
		f.Company, f.Site, f.Category, f.Brand, f.Product,
		DomainField, f.Channel, ChannelTypeField, PartnerNameField,
		f.RevenueStream, f.StartDate, f.EndDate, f.Quantity, StatusField,
	}
	kept := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != "" && !IsFinancial(c) {
			kept = append(kept, c)
		}
	}

	out := domain.Dataset{
		Columns: kept,
		Records: make([]domain.Record, 0, len(ds.Records)),
	}
	for _, r := range ds.Records {
		channel := r.String(f.Channel)
		rec := domain.Record{
			DomainField:      DomainFor(r.String(f.Brand)),
			ChannelTypeField: channelType(channel),
			PartnerNameField: partnerName(channel),
			StatusField:      string(AssignStatus(t.statuses, r.String(f.Product), r.String(StatusField), channel)),
		}
		for _, c := range []string{f.Company, f.Site, f.Category, f.Brand, f.Product, f.Channel, f.RevenueStream, f.StartDate, f.EndDate, f.Quantity} {
			if c != "" {
				rec[c] = r[c]
			}
		}
		for k := range rec {
			if IsFinancial(k) {
				delete(rec, k)
			}
		}
		out.Records = append(out.Records, rec)
	}
	return out
}

func channelType(channel string) any {
	switch {
	case filter.Direct(channel):
		return "Direct"
	case filter.Partner(channel):
		return "Partner"
	}
	return nil
}

func partnerName(channel string) any {
	switch {
	case filter.Direct(channel):
		return NotApplicable
	case filter.Partner(channel):
		return strings.TrimSpace(channel)
	}
	return nil
}
