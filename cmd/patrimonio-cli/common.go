package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"patrimonio/internal/backend"
	"patrimonio/internal/cli"
	"patrimonio/internal/config"
	"patrimonio/internal/core"
	"patrimonio/internal/log"
	"patrimonio/internal/report"
)

// output holds the flags every rendering command shares.
type output struct {
	format   string
	style    string
	currency string
}

func (o *output) setFlags(f *flag.FlagSet) {
	f.StringVar(&o.format, "format", "term", "Output format: markdown, html or term.")
	f.StringVar(&o.style, "style", "auto", "Terminal style for -format term (auto, dark, light, notty).")
	f.StringVar(&o.currency, "currency", "", "ISO 4217 currency for amounts (defaults to CURRENCY).")
}

func (o *output) render(md string) error {
	format, err := report.ParseFormat(o.format)
	if err != nil {
		return err
	}
	return report.Render(os.Stdout, md, format, o.style)
}

func (o *output) money(cfg *config.Config) (report.Money, error) {
	code := o.currency
	if code == "" {
		code = cfg.Currency
	}
	return report.NewMoney(code)
}

// setup loads .env and the configuration and returns a logger on stderr so
// stdout only carries the report.
func setup() (*config.Config, *log.Logger) {
	cli.LoadEnvFile()
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := cli.SetupLogger(level, os.Stderr).WithComponent(log.ComponentCLI)
	return config.Load(), logger
}

// openSource opens the DATA_BACKEND source without the document cache.
func openSource(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	bc.CacheSize = 0
	return backend.NewFactory(logger).CreateBackend(ctx, bc)
}

func parseMonthArg(s string) (core.Month, error) {
	if s == "" {
		return core.Month{}, fmt.Errorf("missing -month (YYYY-MM)")
	}
	return core.ParseMonth(s)
}
