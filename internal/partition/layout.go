// Package partition owns the on-disk and in-bucket layout of quote datasets:
// one parquet file per (date, ticker) under dt=<date>/ticker=<symbol>/.
package partition

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sabarim/b3quotes/internal/frame"
	"github.com/sabarim/b3quotes/internal/quote"
)

// FileName is the name of the single file inside every partition directory.
const FileName = "data.parquet"

// Dir returns the relative partition directory for a date and ticker, with
// the ticker sanitized: dt=2024-01-02/ticker=PETR4_SA
func Dir(date time.Time, ticker string) string {
	return DirFor(date.Format(quote.DateLayout), ticker)
}

// DirFor is Dir for an already formatted dt value.
func DirFor(dt, ticker string) string {
	return "dt=" + dt + "/ticker=" + quote.SanitizeTicker(ticker)
}

// Key returns the object key of a partition file under prefix. An empty
// prefix yields a key relative to the bucket root.
func Key(prefix, dt, ticker string) string {
	return JoinKey(prefix, DirFor(dt, ticker)+"/"+FileName)
}

// JoinKey joins an object-store prefix and a relative key with exactly one
// slash, trimming slashes around the prefix.
func JoinKey(prefix, rel string) string {
	prefix = strings.Trim(prefix, "/")
	rel = strings.TrimLeft(rel, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

// LocalPath returns the file path of a partition under a local root.
func LocalPath(root, dt, ticker string) string {
	return filepath.Join(root, filepath.FromSlash(DirFor(dt, ticker)), FileName)
}

// Values extracts the dt and ticker values from a key or path containing
// dt=<date>/ticker=<symbol> segments.
func Values(key string) (dt, ticker string, ok bool) {
	for _, seg := range strings.Split(filepath.ToSlash(key), "/") {
		switch {
		case strings.HasPrefix(seg, "dt="):
			dt = strings.TrimPrefix(seg, "dt=")
		case strings.HasPrefix(seg, "ticker="):
			ticker = strings.TrimPrefix(seg, "ticker=")
		}
	}
	return dt, ticker, dt != "" && ticker != ""
}

// AddPathColumns exposes the dt and ticker values of a partition path as
// columns when the file does not carry them, the way a read of a
// hive-partitioned table does.
func AddPathColumns(f *frame.Frame, key string) {
	dt, ticker, ok := Values(key)
	if !ok {
		return
	}
	for _, col := range [][2]string{{"dt", dt}, {quote.ColTicker, ticker}} {
		name, value := col[0], col[1]
		if f.Has(name) {
			continue
		}
		values := make([]any, f.Len())
		for i := range values {
			values[i] = value
		}
		_ = f.SetColumn(name, values)
	}
}

// Raw is the set of raw quotes for one (date, ticker) partition.
type Raw struct {
	Date   time.Time
	Ticker string
	Quotes []quote.Quote
}

// Dt returns the ISO date of the partition.
func (r Raw) Dt() string { return r.Date.Format(quote.DateLayout) }

// SplitRaw groups quotes by date and then by ticker, both ascending. Row
// order within a partition follows the input.
func SplitRaw(quotes []quote.Quote) []Raw {
	type key struct {
		date   time.Time
		ticker string
	}
	index := make(map[key]int)
	var parts []Raw
	for _, q := range quotes {
		k := key{date: quote.Date(q.TradeDate), ticker: q.Ticker}
		i, ok := index[k]
		if !ok {
			i = len(parts)
			index[k] = i
			parts = append(parts, Raw{Date: k.date, Ticker: k.ticker})
		}
		parts[i].Quotes = append(parts[i].Quotes, q)
	}
	sort.SliceStable(parts, func(i, j int) bool {
		if !parts[i].Date.Equal(parts[j].Date) {
			return parts[i].Date.Before(parts[j].Date)
		}
		return parts[i].Ticker < parts[j].Ticker
	})
	return parts
}

// Refined is the set of refined rows for one (dt, ticker) partition.
type Refined struct {
	Dt     string
	Ticker string
	Rows   []quote.Refined
}

// SplitRefined groups refined rows by dt and then by ticker, both ascending.
func SplitRefined(rows []quote.Refined) []Refined {
	type key struct{ dt, ticker string }
	index := make(map[key]int)
	var parts []Refined
	for _, r := range rows {
		k := key{dt: r.Dt, ticker: r.Ticker}
		i, ok := index[k]
		if !ok {
			i = len(parts)
			index[k] = i
			parts = append(parts, Refined{Dt: k.dt, Ticker: k.ticker})
		}
		parts[i].Rows = append(parts[i].Rows, r)
	}
	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].Dt != parts[j].Dt {
			return parts[i].Dt < parts[j].Dt
		}
		return parts[i].Ticker < parts[j].Ticker
	})
	return parts
}
