package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/google/subcommands"

	"patrimonio/internal/core"
	"patrimonio/internal/log"
	"patrimonio/internal/sources/file"
	"patrimonio/internal/sources/s3"
)

type pushCmd struct {
	dir    string
	dryRun bool
}

func (*pushCmd) Name() string     { return "push" }
func (*pushCmd) Synopsis() string { return "upload document files to the S3 bucket" }
func (*pushCmd) Usage() string {
	return `patrimonio-cli push -dir <directory> [-n]

  Uploads every YYYY-MM.json and transfers_YYYY-MM.json file of the
  directory under S3_BUCKET/S3_PREFIX, replacing existing objects.
`
}

func (c *pushCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "Directory holding the JSON documents.")
	f.BoolVar(&c.dryRun, "n", false, "List the files that would be uploaded.")
}

func (c *pushCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.dir == "" {
		fmt.Fprintln(os.Stderr, "missing -dir")
		return subcommands.ExitUsageError
	}
	cfg, logger := setup()
	if cfg.S3Bucket == "" {
		fmt.Fprintln(os.Stderr, "S3_BUCKET is not set")
		return subcommands.ExitUsageError
	}

	local := file.New(c.dir)
	names, err := local.ListNames(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	sort.Strings(names)

	bucket, err := s3.New(ctx, s3.Config{
		Bucket:    cfg.S3Bucket,
		Prefix:    cfg.S3Prefix,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	}, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	uploaded := 0
	for _, name := range names {
		if !core.IsStoredName(name) {
			continue
		}
		if c.dryRun {
			fmt.Println(name)
			continue
		}
		raw, found, err := local.FetchDocument(ctx, name)
		if err != nil || !found {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", name, err)
			return subcommands.ExitFailure
		}
		if err := bucket.PutDocument(ctx, name, raw); err != nil {
			fmt.Fprintf(os.Stderr, "Error uploading %s: %v\n", name, err)
			return subcommands.ExitFailure
		}
		uploaded++
		logger.Debug("Document uploaded", log.FieldDocument, name, "bucket", cfg.S3Bucket)
	}
	if !c.dryRun {
		fmt.Printf("Uploaded %d documents to s3://%s/%s\n", uploaded, cfg.S3Bucket, cfg.S3Prefix)
	}
	return subcommands.ExitSuccess
}
