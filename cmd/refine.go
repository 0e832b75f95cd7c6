package main

import (
	"github.com/spf13/cobra"

	"github.com/sabarim/b3quotes/internal/objectstore"
	"github.com/sabarim/b3quotes/internal/refine"
)

func newRefineCmd() *cobra.Command {
	var (
		input     string
		output    string
		bucket    string
		prefix    string
		overwrite bool
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Refine raw partitions locally",
		Long: `Read raw Parquet partitions from a local directory or S3 prefix, aggregate
them per ticker and trade date, and write refined partitions to a local
directory. With --s3-bucket the refined files are uploaded as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("s3-prefix") && a.cfg.Storage.RefinedPrefix != "" {
				prefix = a.cfg.Storage.RefinedPrefix
			}
			opts := objectstore.Options{Region: a.cfg.Storage.Region, Endpoint: a.cfg.Storage.Endpoint}

			var store objectstore.Store
			if bucket != "" && !dryRun {
				if store, err = objectstore.NewS3(a.ctx, bucket, opts); err != nil {
					return err
				}
			}

			_, err = refine.New(objectstore.NewOpener(opts), store, a.log).Run(a.ctx, refine.Options{
				Input:     input,
				Output:    output,
				Prefix:    prefix,
				Overwrite: overwrite,
				DryRun:    dryRun,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Local directory, Parquet file or s3:// prefix with raw data")
	cmd.Flags().StringVar(&output, "output", "", "Local directory for refined Parquet")
	cmd.Flags().StringVar(&bucket, "s3-bucket", "", "S3 bucket for optional upload")
	cmd.Flags().StringVar(&prefix, "s3-prefix", refine.DefaultPrefix, "S3 prefix for optional upload")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing partitions in S3")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not upload even if a bucket is given")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
