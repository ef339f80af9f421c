package commands

import (
	"fmt"

	"github.com/de-tools/book-atlas/pkg/services/config"
	"github.com/spf13/cobra"
)

func NewVariantsCmd(session *Session) *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the configured dashboard variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := session.Config()
			if err != nil {
				return err
			}
			registry, err := config.NewRegistry(cfg.VariantsFile)
			if err != nil {
				return err
			}

			for _, name := range registry.GetProfiles() {
				v, err := registry.GetVariant(name)
				if err != nil {
					return err
				}
				marker := " "
				if name == cfg.Variant {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-20s %s\n", marker, name, v.Title)
			}
			return nil
		},
	}
}
