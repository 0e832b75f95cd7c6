// Package aggregate implements the refinement step shared by the batch and
// local refiners: one row per (ticker, trade date) with a 5-row trailing
// moving average of the close and the close-to-close delta.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sabarim/b3quotes/internal/frame"
	"github.com/sabarim/b3quotes/internal/quote"
)

// WindowSize is the number of rows, current row included, averaged into
// close_ma_5.
const WindowSize = 5

// Result holds the refined rows, sorted by (ticker, trade date). An empty
// result is a successful run with nothing to write.
type Result struct {
	Rows []quote.Refined
}

// Empty reports whether there is nothing to write.
func (r Result) Empty() bool { return len(r.Rows) == 0 }

// Run validates a raw frame and refines it. An empty frame short-circuits
// before validation, so a run over no input succeeds without output.
func Run(f *frame.Frame) (Result, error) {
	if f == nil || f.Empty() {
		return Result{}, nil
	}
	if err := quote.Resolve(f, quote.RefineSchema); err != nil {
		return Result{}, err
	}
	quotes, err := quote.FromFrame(f)
	if err != nil {
		return Result{}, err
	}
	return Refine(quotes), nil
}

// Refine groups, orders and windows the given quotes.
func Refine(quotes []quote.Quote) Result {
	if len(quotes) == 0 {
		return Result{}
	}
	rows := group(quotes)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].TradeDate.Before(rows[j].TradeDate)
	})
	window(rows)
	return Result{Rows: rows}
}

type groupKey struct {
	ticker string
	date   time.Time
}

// group collapses duplicate (ticker, date) rows: the first non-null value of
// each price column in input order, and the sum of volumes.
func group(quotes []quote.Quote) []quote.Refined {
	index := make(map[groupKey]int, len(quotes))
	rows := make([]quote.Refined, 0, len(quotes))

	for _, q := range quotes {
		k := groupKey{ticker: q.Ticker, date: quote.Date(q.TradeDate)}
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, quote.Refined{
				TradeDate: k.date,
				Ticker:    k.ticker,
				Dt:        k.date.Format(quote.DateLayout),
			})
		}
		r := &rows[i]
		first(&r.Opening, q.Open)
		first(&r.High, q.High)
		first(&r.Low, q.Low)
		first(&r.Closing, q.Close)
		first(&r.AdjustedClose, q.AdjClose)
		if q.Volume != nil {
			r.VolumeTotal += *q.Volume
		}
	}
	return rows
}

func first(dst *decimal.NullDecimal, v decimal.NullDecimal) {
	if !dst.Valid && v.Valid {
		*dst = v
	}
}

// window fills close_ma_5 and close_delta. rows must be sorted by ticker
// then date; the trailing window restarts at every ticker boundary.
func window(rows []quote.Refined) {
	start := 0
	for i := range rows {
		if i > 0 && rows[i].Ticker != rows[i-1].Ticker {
			start = i
		}

		lo := i - WindowSize + 1
		if lo < start {
			lo = start
		}
		rows[i].CloseMA5 = mean(rows[lo : i+1])

		if i > start && rows[i].Closing.Valid && rows[i-1].Closing.Valid {
			rows[i].CloseDelta = decimal.NewNullDecimal(rows[i].Closing.Decimal.Sub(rows[i-1].Closing.Decimal))
		} else {
			rows[i].CloseDelta = decimal.NullDecimal{}
		}
	}
}

// mean averages the non-null closes; null when there are none.
func mean(rows []quote.Refined) decimal.NullDecimal {
	sum := decimal.Zero
	n := int64(0)
	for _, r := range rows {
		if r.Closing.Valid {
			sum = sum.Add(r.Closing.Decimal)
			n++
		}
	}
	if n == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(n)))
}
