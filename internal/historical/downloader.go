// Package historical downloads daily quote history for a list of symbols and
// lands it as raw partitions, either in an object store or a local directory.
package historical

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sabarim/b3quotes/internal/apperr"
	"github.com/sabarim/b3quotes/internal/frame"
	"github.com/sabarim/b3quotes/internal/objectstore"
	"github.com/sabarim/b3quotes/internal/partition"
	"github.com/sabarim/b3quotes/internal/provider"
	"github.com/sabarim/b3quotes/internal/quote"
)

// DefaultLookbackDays is the default range when no start date is given.
const DefaultLookbackDays = 7

// Options controls a single download run.
type Options struct {
	Tickers     []string
	Start       time.Time
	End         time.Time
	Prefix      string
	LocalOutput string
	Overwrite   bool
	DryRun      bool
	// TempDir holds partition files before upload; empty means os.TempDir.
	TempDir string
}

// Summary reports what a run did.
type Summary struct {
	Rows       int
	Partitions int
	Uploaded   int
	Skipped    int
	// Files lists local files left behind: local-output partitions, or
	// temp files in dry-run mode.
	Files []string
}

// Downloader fetches quotes from a provider and writes raw partitions.
type Downloader struct {
	provider provider.Provider
	store    objectstore.Store
	log      *slog.Logger
}

// NewDownloader creates a downloader. A nil store means nothing is uploaded.
func NewDownloader(p provider.Provider, store objectstore.Store, log *slog.Logger) *Downloader {
	return &Downloader{
		provider: p,
		store:    store,
		log:      log.With("component", "fetch", "provider", p.Name()),
	}
}

// ResolveDates parses optional YYYY-MM-DD bounds. A missing end is today and
// a missing start is DefaultLookbackDays before today.
func ResolveDates(start, end string, now time.Time) (time.Time, time.Time, error) {
	today := quote.Date(now)
	endDate := today
	startDate := today.AddDate(0, 0, -DefaultLookbackDays)

	var err error
	if start != "" {
		if startDate, err = time.Parse(quote.DateLayout, start); err != nil {
			return time.Time{}, time.Time{}, &apperr.ValidationError{Msg: fmt.Sprintf("invalid start date %q", start)}
		}
	}
	if end != "" {
		if endDate, err = time.Parse(quote.DateLayout, end); err != nil {
			return time.Time{}, time.Time{}, &apperr.ValidationError{Msg: fmt.Sprintf("invalid end date %q", end)}
		}
	}
	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, &apperr.ValidationError{Msg: "start date cannot be after end date"}
	}
	return startDate, endDate, nil
}

// Run downloads every ticker, then writes one partition per (date, ticker).
// The first upload failure aborts the run.
func (d *Downloader) Run(ctx context.Context, opts Options) (Summary, error) {
	var summary Summary
	if opts.Start.After(opts.End) {
		return summary, &apperr.ValidationError{Msg: "start date cannot be after end date"}
	}

	var all []quote.Quote
	for _, ticker := range opts.Tickers {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		quotes, err := d.Fetch(ctx, ticker, opts.Start, opts.End)
		if err != nil {
			return summary, err
		}
		all = append(all, quotes...)
	}

	if len(all) == 0 {
		d.log.Warn("no partitions generated")
		return summary, nil
	}
	summary.Rows = len(all)

	if opts.LocalOutput != "" {
		if err := os.MkdirAll(opts.LocalOutput, 0755); err != nil {
			return summary, fmt.Errorf("failed to create local output directory: %w", err)
		}
	}

	for _, part := range partition.SplitRaw(all) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := d.writePartition(ctx, part, opts, &summary); err != nil {
			return summary, err
		}
		summary.Partitions++
	}

	d.log.Info("download completed",
		"rows", summary.Rows,
		"partitions", summary.Partitions,
		"uploaded", summary.Uploaded,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

// Fetch downloads one ticker and returns its validated, coerced quotes. A
// ticker with no data yields no quotes and no error.
func (d *Downloader) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]quote.Quote, error) {
	d.log.Info("downloading quotes",
		"ticker", ticker,
		"start", start.Format(quote.DateLayout),
		"end", end.Format(quote.DateLayout),
	)

	f, err := d.provider.Daily(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	if f == nil || f.Empty() {
		d.log.Warn("ticker returned no data", "ticker", ticker)
		return nil, nil
	}
	return normalize(f, ticker)
}

// normalize renames provider headers, attaches the ticker, validates the raw
// schema and drops rows missing an open or close price.
func normalize(f *frame.Frame, ticker string) ([]quote.Quote, error) {
	tickers := make([]any, f.Len())
	for i := range tickers {
		tickers[i] = ticker
	}
	if err := f.SetColumn(quote.ColTickerSymbol, tickers); err != nil {
		return nil, err
	}
	if err := quote.Resolve(f, quote.RawSchema); err != nil {
		return nil, fmt.Errorf("ticker %s: %w", ticker, err)
	}

	quotes, err := quote.FromFrame(f)
	if err != nil {
		return nil, fmt.Errorf("ticker %s: %w", ticker, err)
	}
	kept := quotes[:0]
	for _, q := range quotes {
		if !q.Open.Valid || !q.Close.Valid {
			continue
		}
		kept = append(kept, q)
	}
	return kept, nil
}

func (d *Downloader) writePartition(ctx context.Context, part partition.Raw, opts Options, summary *Summary) error {
	key := partition.Key(opts.Prefix, part.Dt(), part.Ticker)
	d.log.Info("writing partition", "key", key, "rows", len(part.Quotes))

	if opts.LocalOutput != "" {
		dest := partition.LocalPath(opts.LocalOutput, part.Dt(), part.Ticker)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("failed to create partition directory: %w", err)
		}
		if err := partition.WriteRaw(dest, part.Quotes); err != nil {
			return err
		}
		d.log.Info("saved local partition", "path", dest)
		summary.Files = append(summary.Files, dest)
		return nil
	}

	tmp, err := tempFile(opts.TempDir)
	if err != nil {
		return err
	}
	if err := partition.WriteRaw(tmp, part.Quotes); err != nil {
		os.Remove(tmp)
		return err
	}

	if opts.DryRun || d.store == nil {
		d.log.Info("dry run, partition left in temp file", "key", key, "path", tmp)
		summary.Files = append(summary.Files, tmp)
		return nil
	}

	outcome, err := objectstore.Upload(ctx, d.store, key, tmp, opts.Overwrite, d.log)
	os.Remove(tmp)
	if err != nil {
		return err
	}
	if outcome == objectstore.Skipped {
		summary.Skipped++
	} else {
		summary.Uploaded++
	}
	return nil
}

func tempFile(dir string) (string, error) {
	f, err := os.CreateTemp(dir, "b3quotes-*.parquet")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return name, nil
}
