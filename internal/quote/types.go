// Package quote holds the daily quote records shared by the fetcher and the
// refiners, together with the canonical column names and partition keys.
package quote

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date used in partition paths and dt values.
const DateLayout = "2006-01-02"

// Canonical raw column names.
const (
	ColTradeDate    = "trade_date"
	ColOpen         = "open_price"
	ColHigh         = "high_price"
	ColLow          = "low_price"
	ColClose        = "close_price"
	ColAdjClose     = "adj_close_price"
	ColVolume       = "volume"
	ColTickerSymbol = "ticker_symbol"

	// ColTicker is the alternate ticker column accepted in raw datasets and
	// the partition column of refined output.
	ColTicker = "ticker"
)

// RawColumns is the fixed column order of raw partitions.
var RawColumns = []string{
	ColTradeDate, ColOpen, ColHigh, ColLow, ColClose, ColAdjClose, ColVolume, ColTickerSymbol,
}

// RefinedColumns is the fixed column order of refined partitions.
var RefinedColumns = []string{
	"trade_date", "opening_price", "high_price", "low_price", "closing_price",
	"adjusted_close", "volume_total", "close_ma_5", "close_delta", "dt", "ticker",
}

// Quote is one daily OHLCV row for a ticker.
type Quote struct {
	TradeDate time.Time
	Ticker    string
	Open      decimal.NullDecimal
	High      decimal.NullDecimal
	Low       decimal.NullDecimal
	Close     decimal.NullDecimal
	AdjClose  decimal.NullDecimal
	Volume    *int64
}

// Refined is one aggregated row per (ticker, trade date) with the rolling
// metrics attached.
type Refined struct {
	TradeDate     time.Time
	Ticker        string
	Opening       decimal.NullDecimal
	High          decimal.NullDecimal
	Low           decimal.NullDecimal
	Closing       decimal.NullDecimal
	AdjustedClose decimal.NullDecimal
	VolumeTotal   int64
	CloseMA5      decimal.NullDecimal
	CloseDelta    decimal.NullDecimal
	Dt            string
}

// Date truncates t to a UTC calendar date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Price wraps a float as a valid NullDecimal.
func Price(f float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(f))
}

// Float returns the value of d as a float pointer, nil when d is null.
func Float(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

// FromFloat is the inverse of Float.
func FromFloat(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return Price(*f)
}
