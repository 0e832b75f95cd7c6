// Package batch is the scheduled refinement job: it reads every raw partition
// from the raw dataset, aggregates them and writes refined partitions that
// are registered in the table catalog.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sabarim/b3quotes/internal/aggregate"
	"github.com/sabarim/b3quotes/internal/apperr"
	"github.com/sabarim/b3quotes/internal/catalog"
	"github.com/sabarim/b3quotes/internal/frame"
	"github.com/sabarim/b3quotes/internal/objectstore"
	"github.com/sabarim/b3quotes/internal/partition"
)

// DefaultParallelism bounds concurrent raw partition downloads.
const DefaultParallelism = 8

// Report summarizes a job run.
type Report struct {
	RunID       string
	RawLocation string
	Manifest    []objectstore.Object
	Files       int
	Rows        int
	Partitions  int
	Created     int
	Updated     int
}

// Job runs the batch refinement.
type Job struct {
	catalog     catalog.Catalog
	open        objectstore.Opener
	parallelism int
	log         *slog.Logger
}

// NewJob creates a job. parallelism <= 0 uses DefaultParallelism.
func NewJob(cat catalog.Catalog, open objectstore.Opener, parallelism int, log *slog.Logger) *Job {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &Job{
		catalog:     cat,
		open:        open,
		parallelism: parallelism,
		log:         log.With("component", "batch"),
	}
}

// Run executes one refinement pass. An empty raw dataset is not an error;
// the job logs it and writes nothing.
func (j *Job) Run(ctx context.Context, p Params) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	log := j.log.With("run_id", report.RunID, "job", p.JobName)

	if err := p.Validate(); err != nil {
		return report, err
	}
	manifest, err := p.Manifest()
	if err != nil {
		return report, err
	}
	report.Manifest = manifest
	for _, obj := range manifest {
		log.Info("triggered by object", "bucket", obj.Bucket, "key", obj.Key)
	}

	rawPath, err := j.rawLocation(ctx, p, log)
	if err != nil {
		return report, err
	}
	report.RawLocation = rawPath

	work, err := os.MkdirTemp("", "b3quotes-batch-*")
	if err != nil {
		return report, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(work)

	raw, files, err := j.readRaw(ctx, rawPath, filepath.Join(work, "raw"))
	if err != nil {
		return report, err
	}
	report.Files = files
	log.Info("loaded raw dataset", "location", rawPath, "files", files, "rows", raw.Len())

	result, err := aggregate.Run(raw)
	if err != nil {
		return report, err
	}
	if result.Empty() {
		log.Warn("raw dataset is empty, nothing to refine", "location", rawPath)
		return report, nil
	}
	report.Rows = len(result.Rows)

	if err := j.writeRefined(ctx, p, result, filepath.Join(work, "refined"), &report, log); err != nil {
		return report, err
	}

	log.Info("batch refinement completed",
		"rows", report.Rows,
		"partitions", report.Partitions,
		"created", report.Created,
		"updated", report.Updated,
	)
	return report, nil
}

// rawLocation prefers the storage location the catalog holds for the raw
// table and falls back to --raw_path.
func (j *Job) rawLocation(ctx context.Context, p Params, log *slog.Logger) (string, error) {
	if p.RawTable != "" {
		t, err := j.catalog.GetTable(ctx, p.CatalogDatabase, p.RawTable)
		switch {
		case err == nil && t.Location != "":
			log.Info("using catalog location for raw table", "table", p.RawTable, "location", t.Location)
			return t.Location, nil
		case err != nil && !errors.Is(err, catalog.ErrTableNotFound):
			return "", err
		}
		log.Info("raw table not usable from catalog, falling back to raw_path", "table", p.RawTable)
	}
	if p.RawPath == "" {
		return "", &apperr.ConfigurationError{Key: "--raw_path"}
	}
	return p.RawPath, nil
}

// readRaw downloads and decodes every parquet object under rawPath and
// concatenates them in key order.
func (j *Job) readRaw(ctx context.Context, rawPath, dir string) (*frame.Frame, int, error) {
	loc, err := objectstore.ParseLocation(rawPath)
	if err != nil {
		return nil, 0, &apperr.ValidationError{Msg: err.Error()}
	}
	store, prefix, err := j.open(ctx, loc)
	if err != nil {
		return nil, 0, err
	}

	all, err := store.List(ctx, prefix)
	if err != nil {
		return nil, 0, err
	}
	var keys []string
	for _, k := range all {
		if strings.HasSuffix(k, ".parquet") {
			keys = append(keys, k)
		}
	}

	frames := make([]*frame.Frame, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.parallelism)
	for i, key := range keys {
		g.Go(func() error {
			dst := filepath.Join(dir, fmt.Sprintf("%06d.parquet", i))
			if err := store.Get(gctx, key, dst); err != nil {
				return err
			}
			f, err := partition.ReadFrame(dst)
			if err != nil {
				return fmt.Errorf("%s: %w", store.URI(key), err)
			}
			partition.AddPathColumns(f, key)
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	combined := frame.New()
	for _, f := range frames {
		combined.Concat(f)
	}
	return combined, len(keys), nil
}

// writeRefined writes every refined partition, replacing existing objects,
// and registers the partitions in the catalog.
func (j *Job) writeRefined(ctx context.Context, p Params, result aggregate.Result, dir string, report *Report, log *slog.Logger) error {
	loc, err := objectstore.ParseLocation(strings.TrimRight(p.OutputPath, "/"))
	if err != nil {
		return &apperr.ValidationError{Msg: err.Error()}
	}
	store, prefix, err := j.open(ctx, loc)
	if err != nil {
		return err
	}

	table := catalog.RefinedTable(p.CatalogDatabase, p.RefinedTable, store.URI(prefix))
	if err := j.catalog.EnsureTable(ctx, table); err != nil {
		return err
	}

	var parts []catalog.Partition
	for _, part := range partition.SplitRefined(result.Rows) {
		if err := ctx.Err(); err != nil {
			return err
		}
		local := partition.LocalPath(dir, part.Dt, part.Ticker)
		if err := partition.WriteRefined(local, part.Rows); err != nil {
			return err
		}
		key := partition.Key(prefix, part.Dt, part.Ticker)
		if err := store.Put(ctx, key, local); err != nil {
			return err
		}
		log.Debug("wrote refined partition", "uri", store.URI(key), "rows", len(part.Rows))

		parts = append(parts, catalog.Partition{
			Values:   []string{part.Dt, part.Ticker},
			Location: store.URI(partition.JoinKey(prefix, partition.DirFor(part.Dt, part.Ticker))),
		})
	}
	report.Partitions = len(parts)

	res, err := j.catalog.UpsertPartitions(ctx, p.CatalogDatabase, p.RefinedTable, parts)
	if err != nil {
		return err
	}
	report.Created = res.Created
	report.Updated = res.Updated
	return nil
}
