package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&monthsCmd{}, "")
	commander.Register(&reportCmd{}, "")
	commander.Register(&forecastCmd{}, "")
	commander.Register(&importCmd{}, "")
	commander.Register(&pushCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
