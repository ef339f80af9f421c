package commands

import (
	"fmt"

	"github.com/de-tools/book-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

func NewSummaryCmd(session *Session, reporter *export.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the summary metrics of the filtered view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := session.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			v := d.Variant()
			return reporter.Summary(v.Title, d.Summary(), v.HasAmount())
		},
	}
}

type AggregateCmd struct {
	session  *Session
	reporter *export.Reporter
	by       string
	top      int
	partners bool
}

func NewAggregateCmd(session *Session, reporter *export.Reporter) *cobra.Command {
	ac := &AggregateCmd{session: session, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Group the filtered view by a dimension",
		Args:  cobra.NoArgs,
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.by, "by", "", "Dimension to group by (e.g., brand, domain)")
	cmd.Flags().IntVar(&ac.top, "top", 0, "Keep only the first N groups (0 keeps all)")
	cmd.Flags().BoolVar(&ac.partners, "partners", false, "Group partner-channel records by partner name")
	cmd.MarkFlagsOneRequired("by", "partners")
	cmd.MarkFlagsMutuallyExclusive("by", "partners")

	return cmd
}

func (ac *AggregateCmd) run(cmd *cobra.Command, _ []string) error {
	if ac.top < 0 {
		return fmt.Errorf("--top must not be negative")
	}

	d, err := ac.session.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer d.Close()

	withAmounts := d.Variant().HasAmount()
	if ac.partners {
		rows := d.Partners()
		if ac.top > 0 && ac.top < len(rows) {
			rows = rows[:ac.top]
		}
		return ac.reporter.Aggregation("By partner", "partner", rows, withAmounts)
	}

	rows, err := d.Aggregate(ac.by, ac.top)
	if err != nil {
		return err
	}
	return ac.reporter.Aggregation("By "+ac.by, ac.by, rows, withAmounts)
}

func NewDistributionCmd(session *Session, reporter *export.Reporter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distribution",
		Short: "Print landscape distributions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "vendors",
		Short: "Count records per domain and vendor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := session.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			dist, err := d.VendorDistribution()
			if err != nil {
				return err
			}
			return reporter.Vendors(dist)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Count records per technology status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := session.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			return reporter.Statuses(d.StatusDistribution())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "support",
		Short: "Sum licence quantities per support offering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := session.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			return reporter.Support(d.SupportCoverage())
		},
	})

	return cmd
}
