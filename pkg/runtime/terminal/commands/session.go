package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/de-tools/book-atlas/pkg/services/config"
	"github.com/spf13/cobra"
)

// Dashboard is the subset of the dashboard controller the commands drive.
type Dashboard interface {
	Variant() domain.Variant
	Reload(ctx context.Context) error
	SetFilters(set domain.FilterSet) error
	Filters() domain.FilterSet
	Summary() domain.Summary
	Aggregate(dimension string, top int) ([]domain.AggregateRow, error)
	Partners() []domain.AggregateRow
	VendorDistribution() (domain.VendorDistribution, error)
	StatusDistribution() domain.StatusDistribution
	SupportCoverage() domain.SupportCoverage
	Dataset() domain.Dataset
	ExportFilename() string
	Export(w io.Writer) error
	Close() error
}

type Factory func(ctx context.Context, cfg *config.Config) (Dashboard, error)

// Session carries the persistent flags shared by every command.
type Session struct {
	ConfigPath string
	Variant    string
	Filters    []string

	factory Factory
}

func NewSession(factory Factory) *Session {
	return &Session{factory: factory}
}

func (s *Session) BindFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&s.ConfigPath, "config", "c", "", "Path to the book-atlas config file")
	cmd.PersistentFlags().StringVar(&s.Variant, "variant", "", "Dashboard variant (overrides the config file)")
	cmd.PersistentFlags().StringArrayVarP(&s.Filters, "filter", "f", nil, "Filter as name=value, repeatable")
}

func (s *Session) Config() (*config.Config, error) {
	cfg, err := config.LoadConfig(s.ConfigPath)
	if err != nil {
		return nil, err
	}
	if s.Variant != "" {
		cfg.Variant = s.Variant
	}
	return cfg, nil
}

// Open builds the dashboard, loads its dataset and applies the --filter flags.
func (s *Session) Open(ctx context.Context) (Dashboard, error) {
	filters, err := ParseFilters(s.Filters)
	if err != nil {
		return nil, err
	}
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}

	d, err := s.factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard for variant %s: %w", cfg.Variant, err)
	}
	if err := d.Reload(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	if err := d.SetFilters(filters); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func ParseFilters(raw []string) (domain.FilterSet, error) {
	set := domain.FilterSet{}
	for _, f := range raw {
		name, value, ok := strings.Cut(f, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid filter %q, expected name=value", f)
		}
		set[name] = value
	}
	return set, nil
}
