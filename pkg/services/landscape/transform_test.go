package landscape

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookOfBusiness() domain.Dataset {
	return domain.Dataset{
		Columns: []string{"Company Name", "IBM Brand", "IBM Product", "Direct or Partner", "Annualized Spend ($)", "Revenue Stream"},
		Records: []domain.Record{
			{
				"Company Name":         "Acme",
				"IBM Brand":            "Data & AI",
				"IBM Product":          "Db2",
				"Direct or Partner":    "Direct",
				"Annualized Spend ($)": 1200.0,
				"Revenue Stream":       "Subscription",
			},
			{
				"Company Name":         "Acme",
				"IBM Brand":            "Security",
				"IBM Product":          "QRadar",
				"Direct or Partner":    "Arrow",
				"Annualized Spend ($)": 300.0,
			},
			{
				"Company Name": "Beta",
				"IBM Brand":    "Mainframe",
				"IBM Product":  "z16",
			},
		},
	}
}

func TestTransform_StripsFinancialFields(t *testing.T) {
	out := NewTransformer(DefaultFields, nil).Transform(bookOfBusiness())

	require.Len(t, out.Records, 3)
	for _, c := range out.Columns {
		assert.False(t, IsFinancial(c), "column %q", c)
	}
	assert.NotContains(t, out.Columns, "Revenue Stream")
	for _, r := range out.Records {
		for k := range r {
			assert.False(t, IsFinancial(k), "field %q", k)
		}
	}
}

func TestTransform_DerivedFields(t *testing.T) {
	out := NewTransformer(DefaultFields, nil).Transform(bookOfBusiness())

	tests := []struct {
		name        string
		record      domain.Record
		domain      string
		channelType any
		partner     any
		status      string
	}{
		{
			name:        "direct",
			record:      out.Records[0],
			domain:      "Data & Analytics",
			channelType: "Direct",
			partner:     NotApplicable,
			status:      string(domain.StatusInstalledBase),
		},
		{
			name:        "partner",
			record:      out.Records[1],
			domain:      "Security & Compliance",
			channelType: "Partner",
			partner:     "Arrow",
			status:      string(domain.StatusInstalledBase),
		},
		{
			name:   "no channel and unmapped brand",
			record: out.Records[2],
			domain: OtherDomain,
			status: string(domain.StatusExplore),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.domain, tt.record[DomainField])
			assert.Equal(t, tt.channelType, tt.record[ChannelTypeField])
			assert.Equal(t, tt.partner, tt.record[PartnerNameField])
			assert.Equal(t, tt.status, tt.record[StatusField])
		})
	}
}

func TestTransform_IsDeterministic(t *testing.T) {
	tr := NewTransformer(DefaultFields, nil)
	assert.Equal(t, tr.Transform(bookOfBusiness()), tr.Transform(bookOfBusiness()))
}

func TestAssignStatus(t *testing.T) {
	src := StatusSource{"Db2": domain.StatusAtRisk}

	assert.Equal(t, domain.StatusAtRisk, AssignStatus(src, "Db2", "Opportunity", "Direct"))
	assert.Equal(t, domain.StatusOpportunity, AssignStatus(src, "MQ", "opportunity", "Direct"))
	assert.Equal(t, domain.StatusInstalledBase, AssignStatus(src, "MQ", "bogus", "Arrow"))
	assert.Equal(t, domain.StatusExplore, AssignStatus(nil, "MQ", "", ""))
}

func TestLoadStatusSource(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "status.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"Db2": "At Risk", " MQ ": "opportunity"}`), 0o600))
	src, err := LoadStatusSource(good)
	require.NoError(t, err)
	assert.Equal(t, StatusSource{"Db2": domain.StatusAtRisk, "MQ": domain.StatusOpportunity}, src)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"Db2": "Retired"}`), 0o600))
	_, err = LoadStatusSource(bad)
	assert.Error(t, err)

	_, err = LoadStatusSource(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestDomainFor(t *testing.T) {
	assert.Equal(t, "Cloud & Infrastructure", DomainFor(" Cloud Pak "))
	assert.Equal(t, OtherDomain, DomainFor(""))
}
