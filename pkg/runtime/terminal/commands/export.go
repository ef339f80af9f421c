package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type ExportCmd struct {
	session *Session
	out     string
}

func NewExportCmd(session *Session) *cobra.Command {
	ec := &ExportCmd{session: session}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered view to a CSV file",
		Args:  cobra.NoArgs,
		RunE:  ec.run,
	}

	cmd.Flags().StringVarP(&ec.out, "out", "o", ".", "Output file, or a directory for a timestamped file name")

	return cmd
}

func (ec *ExportCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	d, err := ec.session.Open(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	var buf bytes.Buffer
	if err := d.Export(&buf); err != nil {
		return err
	}

	path := ec.out
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, d.ExportFilename())
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	zerolog.Ctx(ctx).Info().Str("file", path).Int("records", d.Dataset().Len()).Msg("export written")
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", d.Dataset().Len(), path)
	return nil
}
