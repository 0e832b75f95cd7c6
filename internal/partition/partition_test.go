package partition

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabarim/b3quotes/internal/aggregate"
	"github.com/sabarim/b3quotes/internal/quote"
)

func TestLayout(t *testing.T) {
	d := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "dt=2024-06-15/ticker=PETR4_SA", Dir(d, "PETR4.SA"))
	assert.Equal(t, "raw/dt=2024-06-15/ticker=idx_BVSP/data.parquet", Key("/raw/", "2024-06-15", "^BVSP"))
	assert.Equal(t, "dt=2024-06-15/ticker=VALE3/data.parquet", Key("", "2024-06-15", "VALE3"))
	assert.Equal(t,
		filepath.Join("/data", "dt=2024-06-15", "ticker=VALE3", "data.parquet"),
		LocalPath("/data", "2024-06-15", "VALE3"))

	dt, ticker, ok := Values("refined/dt=2024-06-15/ticker=idx_BVSP/data.parquet")
	require.True(t, ok)
	assert.Equal(t, "2024-06-15", dt)
	assert.Equal(t, "idx_BVSP", ticker)

	_, _, ok = Values("refined/data.parquet")
	assert.False(t, ok)
}

func TestSplitRawOrdersByDateThenTicker(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	parts := SplitRaw([]quote.Quote{
		{TradeDate: d2, Ticker: "BBB"},
		{TradeDate: d1, Ticker: "BBB"},
		{TradeDate: d2, Ticker: "AAA"},
		{TradeDate: d1, Ticker: "AAA"},
		{TradeDate: d1, Ticker: "AAA"},
	})
	require.Len(t, parts, 4)
	assert.Equal(t, "2024-01-01", parts[0].Dt())
	assert.Equal(t, "AAA", parts[0].Ticker)
	assert.Len(t, parts[0].Quotes, 2)
	assert.Equal(t, "BBB", parts[1].Ticker)
	assert.Equal(t, "2024-01-02", parts[2].Dt())
	assert.Equal(t, "AAA", parts[2].Ticker)
}

func TestSplitRefined(t *testing.T) {
	parts := SplitRefined([]quote.Refined{
		{Dt: "2024-01-02", Ticker: "AAA"},
		{Dt: "2024-01-01", Ticker: "BBB"},
		{Dt: "2024-01-01", Ticker: "AAA"},
	})
	require.Len(t, parts, 3)
	assert.Equal(t, []string{"2024-01-01/AAA", "2024-01-01/BBB", "2024-01-02/AAA"},
		[]string{parts[0].Dt + "/" + parts[0].Ticker, parts[1].Dt + "/" + parts[1].Ticker, parts[2].Dt + "/" + parts[2].Ticker})
}

func TestRawRoundTrip(t *testing.T) {
	dir := t.TempDir()
	file := LocalPath(dir, "2024-01-02", "PETR4.SA")
	vol := int64(1500)
	in := []quote.Quote{{
		TradeDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Ticker:    "PETR4.SA",
		Open:      quote.Price(36.1),
		High:      quote.Price(36.9),
		Low:       quote.Price(35.8),
		Close:     quote.Price(36.5),
		AdjClose:  decimal.NullDecimal{},
		Volume:    &vol,
	}}
	require.NoError(t, WriteRaw(file, in))

	f, err := ReadFrame(file)
	require.NoError(t, err)
	assert.Equal(t, quote.RawColumns, f.Columns())
	require.NoError(t, quote.Resolve(f, quote.RawSchema))

	out, err := quote.FromFrame(f)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0].TradeDate, out[0].TradeDate)
	assert.Equal(t, "PETR4.SA", out[0].Ticker)
	assert.Equal(t, "36.5", out[0].Close.Decimal.String())
	assert.False(t, out[0].AdjClose.Valid)
	require.NotNil(t, out[0].Volume)
	assert.Equal(t, vol, *out[0].Volume)
}

func TestRefinedColumnsAndReadDir(t *testing.T) {
	dir := t.TempDir()
	rows := []quote.Refined{{
		TradeDate:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Ticker:      "AAA",
		Closing:     quote.Price(12),
		VolumeTotal: 80,
		CloseMA5:    quote.Price(11),
		CloseDelta:  quote.Price(2),
		Dt:          "2024-01-02",
	}}
	require.NoError(t, WriteRefined(LocalPath(dir, "2024-01-02", "AAA"), rows))
	require.NoError(t, WriteRefined(LocalPath(dir, "2024-01-01", "AAA"), rows))

	f, files, err := ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Contains(t, files[0], "dt=2024-01-01")
	assert.Equal(t, quote.RefinedColumns, f.Columns())
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, int64(80), f.Value("volume_total", 0))
	assert.Nil(t, f.Value("opening_price", 0))
	assert.Equal(t, 2.0, f.Value("close_delta", 1))
}

func TestReadDirMissing(t *testing.T) {
	_, _, err := ReadDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestReadDirAddsPathColumns(t *testing.T) {
	dir := t.TempDir()
	vol := int64(10)
	q := quote.Quote{
		TradeDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Ticker:    "^BVSP",
		Open:      quote.Price(1),
		Close:     quote.Price(2),
		Volume:    &vol,
	}
	require.NoError(t, WriteRaw(LocalPath(dir, "2024-01-02", "^BVSP"), []quote.Quote{q}))

	f, _, err := ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, quote.RawColumns...), "dt", quote.ColTicker), f.Columns())
	assert.Equal(t, "2024-01-02", f.Value("dt", 0))
	assert.Equal(t, "idx_BVSP", f.Value(quote.ColTicker, 0))
	assert.Equal(t, "^BVSP", f.Value(quote.ColTickerSymbol, 0))
}

func TestRawPartitionsAggregateAfterReadDir(t *testing.T) {
	dir := t.TempDir()
	for i, px := range []float64{10, 12} {
		vol := int64(100)
		day := time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
		q := quote.Quote{
			TradeDate: day,
			Ticker:    "AAA",
			Open:      quote.Price(px),
			High:      quote.Price(px),
			Low:       quote.Price(px),
			Close:     quote.Price(px),
			AdjClose:  quote.Price(px),
			Volume:    &vol,
		}
		require.NoError(t, WriteRaw(LocalPath(dir, day.Format(quote.DateLayout), "AAA"), []quote.Quote{q}))
	}

	f, _, err := ReadDir(dir)
	require.NoError(t, err)
	for _, col := range quote.RawColumns {
		assert.True(t, f.Has(col), "missing column %s in %v", col, f.Columns())
	}

	result, err := aggregate.Run(f)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "2", result.Rows[1].CloseDelta.Decimal.String())
	assert.Equal(t, "11", result.Rows[1].CloseMA5.Decimal.String())
}
