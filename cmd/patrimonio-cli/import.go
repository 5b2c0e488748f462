package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"patrimonio/internal/amqp"
	"patrimonio/internal/cli"
	"patrimonio/internal/log"
	"patrimonio/internal/sources/file"
	"patrimonio/internal/storage"
	"patrimonio/internal/worker"
)

type importCmd struct {
	dir string
	db  string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "load document files into the SQLite store" }
func (*importCmd) Usage() string {
	return `patrimonio-cli import -dir <directory> [-db <path>]

  Copies every YYYY-MM.json and transfers_YYYY-MM.json file of the
  directory into the SQLite document store. Files whose content changed
  are announced on AMQP when AMQP_URL is set.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "Directory holding the JSON documents.")
	f.StringVar(&c.db, "db", "", "SQLite database path (defaults to SQLITE_DB_PATH).")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.dir == "" {
		fmt.Fprintln(os.Stderr, "missing -dir")
		return subcommands.ExitUsageError
	}
	cfg, logger := setup()
	dbPath := c.db
	if dbPath == "" {
		dbPath = cfg.SQLiteDBPath
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", dbPath, err)
		return subcommands.ExitFailure
	}
	defer repo.Close()

	var publisher worker.Publisher
	if client := cli.InitAMQP(logger, cfg); client != nil {
		defer client.Close()
		publisher = client
	}

	run, err := worker.NewMirrorWorker(file.New(c.dir), repo, publisher, amqp.OriginImport, logger).SyncOnce(ctx)
	logger.Info("Import finished", log.FieldOperation, log.OpImport, "dir", c.dir, "scanned", run.Scanned, "changed", run.Changed)
	fmt.Printf("Imported %d documents, %d changed\n", run.Scanned, run.Changed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import finished with errors: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
