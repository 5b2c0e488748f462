package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"patrimonio/internal/report"
	"patrimonio/internal/services"
)

type monthsCmd struct {
	out output
}

func (*monthsCmd) Name() string     { return "months" }
func (*monthsCmd) Synopsis() string { return "list the months that have a portfolio document" }
func (*monthsCmd) Usage() string {
	return `patrimonio-cli months [-format markdown|html|term]

  Lists every month the configured data source holds a document for,
  oldest first.
`
}

func (c *monthsCmd) SetFlags(f *flag.FlagSet) {
	c.out.setFlags(f)
}

func (c *monthsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger := setup()
	src, err := openSource(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer src.Close()

	entries, err := services.NewMonthService(src.Source, logger).Months(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing months: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.out.render(report.Months(entries)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
