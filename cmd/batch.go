package main

import (
	"github.com/spf13/cobra"

	"github.com/sabarim/b3quotes/internal/batch"
	"github.com/sabarim/b3quotes/internal/catalog"
	"github.com/sabarim/b3quotes/internal/objectstore"
)

func newBatchCmd() *cobra.Command {
	var (
		p           batch.Params
		parallelism int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run the batch refinement job",
		Long: `Read the whole raw dataset, aggregate it per ticker and trade date, write
refined partitions under --output_path and register them in the catalog.
Arguments use the job runner's names; unknown runner arguments are ignored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			if p.JobName == "" {
				p.JobName = a.cfg.Batch.JobName
			}
			if p.CatalogDatabase == "" {
				p.CatalogDatabase = a.cfg.Catalog.Database
			}
			if p.RawTable == "" {
				p.RawTable = a.cfg.Catalog.RawTable
			}
			if p.RefinedTable == "" {
				p.RefinedTable = a.cfg.Catalog.RefinedTable
			}
			if parallelism <= 0 {
				parallelism = a.cfg.Batch.Parallelism
			}

			cat, err := catalog.Open(a.ctx, catalog.Options{
				Backend:    a.cfg.Catalog.Backend,
				SQLitePath: a.cfg.Catalog.SQLitePath,
				Region:     a.cfg.Storage.Region,
				Endpoint:   a.cfg.Storage.Endpoint,
			})
			if err != nil {
				return err
			}
			defer cat.Close()

			opener := objectstore.NewOpener(objectstore.Options{
				Region:   a.cfg.Storage.Region,
				Endpoint: a.cfg.Storage.Endpoint,
			})
			_, err = batch.NewJob(cat, opener, parallelism, a.log).Run(a.ctx, p)
			return err
		},
	}

	cmd.FParseErrWhitelist.UnknownFlags = true
	cmd.Flags().StringVar(&p.JobName, "JOB_NAME", "", "Job name")
	cmd.Flags().StringVar(&p.RawPath, "raw_path", "", "Raw dataset location (s3:// or local directory)")
	cmd.Flags().StringVar(&p.OutputPath, "output_path", "", "Refined dataset location (s3:// or local directory)")
	cmd.Flags().StringVar(&p.CatalogDatabase, "catalog_database", "", "Catalog database")
	cmd.Flags().StringVar(&p.RawTable, "raw_table", "", "Catalog table of the raw dataset")
	cmd.Flags().StringVar(&p.RefinedTable, "refined_table", "", "Catalog table of the refined dataset")
	cmd.Flags().StringVar(&p.IngestionManifest, "ingestion_manifest", "", "JSON list of objects that triggered the run")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "Concurrent raw partition downloads")
	return cmd
}
