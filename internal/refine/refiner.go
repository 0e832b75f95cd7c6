// Package refine runs the aggregation over a local (or downloaded) raw
// dataset and writes refined partitions to a local directory, optionally
// publishing them to a bucket.
package refine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sabarim/b3quotes/internal/aggregate"
	"github.com/sabarim/b3quotes/internal/objectstore"
	"github.com/sabarim/b3quotes/internal/partition"
)

// DefaultPrefix is the key prefix refined partitions are uploaded under.
const DefaultPrefix = "refined"

// Options controls a local refinement run.
type Options struct {
	// Input is a directory, a single parquet file, or an s3:// prefix.
	Input     string
	Output    string
	Prefix    string
	Overwrite bool
	DryRun    bool
}

// Summary reports what a run did.
type Summary struct {
	InputFiles int
	Rows       int
	Files      []string
	Uploaded   int
	Skipped    int
}

// Refiner runs local refinements.
type Refiner struct {
	open  objectstore.Opener
	store objectstore.Store
	log   *slog.Logger
}

// New creates a refiner. open resolves s3:// inputs and may be nil when only
// local inputs are used. store receives uploads; nil disables them.
func New(open objectstore.Opener, store objectstore.Store, log *slog.Logger) *Refiner {
	return &Refiner{open: open, store: store, log: log.With("component", "refine")}
}

// Run reads the input dataset, aggregates it and writes one file per
// (dt, ticker) under opts.Output. An empty input writes nothing.
func (r *Refiner) Run(ctx context.Context, opts Options) (Summary, error) {
	var summary Summary
	if err := os.MkdirAll(opts.Output, 0755); err != nil {
		return summary, fmt.Errorf("failed to create output directory: %w", err)
	}

	input, cleanup, err := r.localInput(ctx, opts.Input)
	if err != nil {
		return summary, err
	}
	defer cleanup()

	r.log.Info("reading raw dataset", "input", opts.Input)
	raw, files, err := partition.ReadDir(input)
	if err != nil {
		return summary, err
	}
	summary.InputFiles = len(files)
	if raw.Empty() {
		r.log.Warn("input dataset is empty, nothing to do", "input", opts.Input)
		return summary, nil
	}

	result, err := aggregate.Run(raw)
	if err != nil {
		return summary, err
	}
	if result.Empty() {
		r.log.Warn("aggregation produced no rows", "input", opts.Input)
		return summary, nil
	}
	summary.Rows = len(result.Rows)

	for _, part := range partition.SplitRefined(result.Rows) {
		dest := partition.LocalPath(opts.Output, part.Dt, part.Ticker)
		if err := partition.WriteRefined(dest, part.Rows); err != nil {
			return summary, err
		}
		r.log.Info("wrote refined partition", "path", dest, "rows", len(part.Rows))
		summary.Files = append(summary.Files, dest)
	}

	if r.store == nil {
		return summary, nil
	}
	if opts.DryRun {
		r.log.Info("dry run, skipping upload")
		return summary, nil
	}
	if err := r.upload(ctx, opts, &summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// upload publishes every partition file under the output directory, not
// only the ones written by this run.
func (r *Refiner) upload(ctx context.Context, opts Options, summary *Summary) error {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	files, err := partition.ListFiles(opts.Output)
	if err != nil {
		return err
	}
	for _, file := range files {
		if filepath.Base(file) != partition.FileName {
			continue
		}
		rel, err := filepath.Rel(opts.Output, file)
		if err != nil {
			return err
		}
		key := partition.JoinKey(prefix, filepath.ToSlash(rel))
		outcome, err := objectstore.Upload(ctx, r.store, key, file, opts.Overwrite, r.log)
		if err != nil {
			return err
		}
		if outcome == objectstore.Skipped {
			summary.Skipped++
		} else {
			summary.Uploaded++
		}
	}
	return nil
}

// localInput returns a local path for input, downloading s3:// inputs into
// a temp directory that cleanup removes.
func (r *Refiner) localInput(ctx context.Context, input string) (string, func(), error) {
	noop := func() {}
	loc, err := objectstore.ParseLocation(input)
	if err != nil {
		return "", noop, err
	}
	if !loc.IsS3() {
		return loc.Dir, noop, nil
	}
	if r.open == nil {
		return "", noop, fmt.Errorf("cannot read %s: no object store configured", input)
	}

	store, prefix, err := r.open(ctx, loc)
	if err != nil {
		return "", noop, err
	}
	dir, err := os.MkdirTemp("", "b3quotes-refine-*")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	keys, err := store.List(ctx, prefix)
	if err != nil {
		cleanup()
		return "", noop, err
	}
	for _, key := range keys {
		if filepath.Ext(key) != ".parquet" {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
		if err := store.Get(ctx, key, filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			cleanup()
			return "", noop, err
		}
	}
	return dir, cleanup, nil
}
