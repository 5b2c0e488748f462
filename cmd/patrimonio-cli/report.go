package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"patrimonio/internal/cli"
	"patrimonio/internal/report"
	"patrimonio/internal/services"
)

type reportCmd struct {
	month string
	json  bool
	out   output
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "show a month's holdings, changes and performance" }
func (*reportCmd) Usage() string {
	return `patrimonio-cli report -month YYYY-MM [-format markdown|html|term] [-json]

  Loads the month and the latest earlier month, merges pending transfers
  and prints the month over month comparison and performance.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "The month to report on (YYYY-MM).")
	f.BoolVar(&c.json, "json", false, "Print the computed view as JSON instead of a report.")
	c.out.setFlags(f)
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := parseMonthArg(c.month)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	cfg, logger := setup()
	money, err := c.out.money(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	src, err := openSource(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer src.Close()

	view, err := services.NewMonthService(src.Source, logger).Load(ctx, m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", m, err)
		return subcommands.ExitFailure
	}

	if c.json {
		cli.ConfigureJSON()
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	if err := c.out.render(report.MonthView(view, money)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
