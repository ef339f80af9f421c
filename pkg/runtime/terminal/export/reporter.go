package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/de-tools/book-atlas/pkg/models/domain"
)

type TableConfig struct {
	KeyWidth    int
	AmountWidth int
	CountWidth  int
	ShareWidth  int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		KeyWidth:    40,
		AmountWidth: 18,
		CountWidth:  8,
		ShareWidth:  8,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "~"
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func (c *Reporter) funcs() template.FuncMap {
	cfg := c.config
	return template.FuncMap{
		"formatRow": func(key string, amount string, count interface{}, share string) string {
			return fmt.Sprintf("| %-*s | %*s | %*v | %*s |",
				cfg.KeyWidth, truncate(key, cfg.KeyWidth),
				cfg.AmountWidth, amount,
				cfg.CountWidth, count,
				cfg.ShareWidth, share)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", cfg.KeyWidth+2),
				strings.Repeat("-", cfg.AmountWidth+2),
				strings.Repeat("-", cfg.CountWidth+2),
				strings.Repeat("-", cfg.ShareWidth+2))
		},
		"pad": func(s string) string {
			return fmt.Sprintf("%-*s", cfg.KeyWidth, s)
		},
		"date": func(t *time.Time) string {
			if t == nil {
				return "-"
			}
			return t.Format("2006-01-02")
		},
		"money": money,
	}
}

func (c *Reporter) render(name, tmpl string, data interface{}) error {
	t, err := template.New(name).Funcs(c.funcs()).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, data)
}

const aggregationTemplate = `
=== {{.Title}} ===

{{separator}}
{{formatRow .Header .AmountHeader "Count" "Share"}}
{{separator}}
{{range .Rows}}{{formatRow .Key .Amount .Count .Share}}
{{end}}{{separator}}
`

type aggregationRow struct {
	Key    string
	Amount string
	Count  int
	Share  string
}

// Aggregation prints grouped rows. Amount columns are blank when withAmounts is false.
func (c *Reporter) Aggregation(title, dimension string, rows []domain.AggregateRow, withAmounts bool) error {
	data := struct {
		Title        string
		Header       string
		AmountHeader string
		Rows         []aggregationRow
	}{Title: title, Header: dimension}
	if withAmounts {
		data.AmountHeader = "Amount"
	}
	for _, r := range rows {
		row := aggregationRow{
			Key:   r.Key,
			Count: r.Count,
			Share: percent(r.Percentage),
		}
		if withAmounts {
			row.Amount = money(r.Spend)
		}
		data.Rows = append(data.Rows, row)
	}
	return c.render("aggregation", aggregationTemplate, data)
}

const summaryTemplate = `
=== {{.Title}} ===

Records: {{.Summary.Records}} of {{.Summary.TotalRecords}}
{{if .WithAmounts}}Total Amount: {{money .Summary.TotalAmount}}
Direct Amount: {{money .Summary.DirectAmount}}
Partner Amount: {{money .Summary.PartnerAmount}}
{{end}}Total Quantity: {{printf "%.0f" .Summary.TotalQuantity}}
Period: {{date .Summary.DateRange.Start}} to {{date .Summary.DateRange.End}}
{{range $key, $value := .Summary.Distinct}}
{{$key}}: {{$value}}{{end}}
`

func (c *Reporter) Summary(title string, s domain.Summary, withAmounts bool) error {
	data := struct {
		Title       string
		Summary     domain.Summary
		WithAmounts bool
	}{Title: title, Summary: s, WithAmounts: withAmounts}
	return c.render("summary", summaryTemplate, data)
}

const statusTemplate = `
=== Technology Status ===
{{range .Buckets}}
{{printf "%-16s" .Status}} {{.Count}}{{end}}
{{if .Unclassified}}
Unclassified: {{.Unclassified}}
{{end}}`

func (c *Reporter) Statuses(dist domain.StatusDistribution) error {
	return c.render("status", statusTemplate, dist)
}

const vendorTemplate = `
=== Vendors by Domain ===
{{range $row := .Rows}}
{{$row.Domain}}
{{range $v := $.Vendors}}  {{pad $v}} {{index $row.Counts $v}}
{{end}}{{end}}`

// Vendors prints one block per domain listing the count for every vendor.
func (c *Reporter) Vendors(dist domain.VendorDistribution) error {
	return c.render("vendors", vendorTemplate, dist)
}

const supportTemplate = `
=== Support Coverage ===
{{range .Levels}}
{{pad .Level}} {{printf "%.0f" .Quantity}}{{else}}
No support fields configured for this variant.{{end}}
`

func (c *Reporter) Support(coverage domain.SupportCoverage) error {
	return c.render("support", supportTemplate, coverage)
}
