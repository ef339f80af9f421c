package terminal

import (
	"context"
	"io"
	"os"

	"github.com/de-tools/book-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/book-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	session  *commands.Session
	reporter *export.Reporter
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Factory commands.Factory
	Output  io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		session:  commands.NewSession(opts.Factory),
		reporter: export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) ExecuteContext(ctx context.Context, args ...string) error {
	if args != nil {
		cli.rootCmd.SetArgs(args)
	}
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "book-atlas",
		Short:         "Book of business and technology landscape reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.session.BindFlags(cmd)

	cmd.AddCommand(commands.NewSummaryCmd(cli.session, cli.reporter))
	cmd.AddCommand(commands.NewAggregateCmd(cli.session, cli.reporter))
	cmd.AddCommand(commands.NewDistributionCmd(cli.session, cli.reporter))
	cmd.AddCommand(commands.NewExportCmd(cli.session))
	cmd.AddCommand(commands.NewSnapshotCmd(cli.session))
	cmd.AddCommand(commands.NewVariantsCmd(cli.session))

	return cmd
}
