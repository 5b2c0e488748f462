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

type forecastCmd struct {
	month string
	out   output
}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "show year-to-date return and the annual projection" }
func (*forecastCmd) Usage() string {
	return `patrimonio-cli forecast -month YYYY-MM [-format markdown|html|term]

  Chains the monthly yields from January to the given month, compounds
  them into a year-to-date return and projects it over twelve months.
`
}

func (c *forecastCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "The last month of the year-to-date window (YYYY-MM).")
	c.out.setFlags(f)
}

func (c *forecastCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	f, err := services.NewForecastService(src.Source, logger).Forecast(ctx, m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building forecast for %s: %v\n", m, err)
		return subcommands.ExitFailure
	}
	if err := c.out.render(report.Forecast(f, money)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
