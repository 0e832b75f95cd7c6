package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sabarim/b3quotes/internal/historical"
	"github.com/sabarim/b3quotes/internal/objectstore"
	"github.com/sabarim/b3quotes/internal/provider"
)

func newFetchCmd() *cobra.Command {
	var (
		tickers     []string
		start       string
		end         string
		bucket      string
		prefix      string
		localOutput string
		overwrite   bool
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download daily quotes and write raw partitions",
		Long: `Download daily quotes for the given tickers and write one Parquet file per
trade date and ticker under <prefix>/dt=<date>/ticker=<ticker>/data.parquet,
either to an S3 bucket or to a local directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			startDate, endDate, err := historical.ResolveDates(start, end, time.Now())
			if err != nil {
				return err
			}
			if bucket == "" {
				bucket = a.cfg.Storage.Bucket
			}
			if !cmd.Flags().Changed("s3-prefix") && a.cfg.Storage.RawPrefix != "" {
				prefix = a.cfg.Storage.RawPrefix
			}

			p, err := provider.New(a.ctx, a.cfg, a.log)
			if err != nil {
				return err
			}

			var store objectstore.Store
			if bucket != "" && !dryRun && localOutput == "" {
				store, err = objectstore.NewS3(a.ctx, bucket, objectstore.Options{
					Region:   a.cfg.Storage.Region,
					Endpoint: a.cfg.Storage.Endpoint,
				})
				if err != nil {
					return err
				}
			}

			_, err = historical.NewDownloader(p, store, a.log).Run(a.ctx, historical.Options{
				Tickers:     tickers,
				Start:       startDate,
				End:         endDate,
				Prefix:      prefix,
				LocalOutput: localOutput,
				Overwrite:   overwrite,
				DryRun:      dryRun,
			})
			return err
		},
	}

	cmd.Flags().StringSliceVar(&tickers, "tickers", []string{"^BVSP"}, "Comma-separated list of B3 tickers (.SA suffix)")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD), default 7 days ago")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&bucket, "s3-bucket", "", "Destination S3 bucket")
	cmd.Flags().StringVar(&prefix, "s3-prefix", "raw", "Base prefix for raw data")
	cmd.Flags().StringVar(&localOutput, "local-output", "", "Local directory to write partitions to instead of S3")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing objects in S3")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not upload; leave partition files in temp")
	return cmd
}
