package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/zerodha/gokiteconnect/v4/models"

	"github.com/sabarim/b3quotes/internal/apperr"
	"github.com/sabarim/b3quotes/internal/instruments"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

const chartJSON = `{"chart":{"result":[{
  "meta":{"gmtoffset":-10800},
  "timestamp":[1704200400,1704286800],
  "indicators":{
    "quote":[{"open":[132.7,null],"high":[134.0,135.1],"low":[132.0,133.2],"close":[133.5,134.8],"volume":[1000,null]}],
    "adjclose":[{"adjclose":[133.1,134.4]}]
  }}],"error":null}}`

func TestYahooDaily(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	y := NewYahoo(srv.URL, srv.Client())
	f, err := y.Daily(context.Background(), "^BVSP", day("2024-01-02"), day("2024-01-03"))
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/v8/finance/chart/^BVSP", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "1704153600", q.Get("period1"))
	assert.Equal(t, "1704326400", q.Get("period2"))
	assert.Equal(t, "1d", q.Get("interval"))
	assert.Equal(t, "history", q.Get("events"))

	assert.Equal(t, Headers, f.Columns())
	require.Equal(t, 2, f.Len())
	assert.Equal(t, day("2024-01-02"), f.Value(HeaderDate, 0).(time.Time).Truncate(24*time.Hour))
	assert.Equal(t, 132.7, f.Value(HeaderOpen, 0))
	assert.Nil(t, f.Value(HeaderOpen, 1))
	assert.Equal(t, 134.4, f.Value(HeaderAdjClose, 1))
	assert.Nil(t, f.Value(HeaderVolume, 1))
}

func TestYahooNotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	f, err := NewYahoo(srv.URL, srv.Client()).Daily(context.Background(), "NOPE", day("2024-01-02"), day("2024-01-03"))
	require.NoError(t, err)
	assert.True(t, f.Empty())
}

func TestYahooServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	_, err := NewYahoo(srv.URL, srv.Client()).Daily(context.Background(), "PETR4.SA", day("2024-01-02"), day("2024-01-03"))
	var remote *apperr.RemoteServiceError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "yahoo", remote.Service)
}

type fakeKite struct {
	token    int
	from, to time.Time
	candles  []kiteconnect.HistoricalData
	err      error
}

func (k *fakeKite) GetHistoricalData(token int, interval string, from, to time.Time, continuous, oi bool) ([]kiteconnect.HistoricalData, error) {
	k.token, k.from, k.to = token, from, to
	return k.candles, k.err
}

type lookup map[string]int64

func (l lookup) GetInstrumentBySymbol(symbol string) (instruments.Instrument, error) {
	tok, ok := l[symbol]
	if !ok {
		return instruments.Instrument{}, errors.New("instrument not found")
	}
	return instruments.Instrument{TradingSymbol: symbol, InstrumentToken: tok}, nil
}

func TestKiteDaily(t *testing.T) {
	fk := &fakeKite{candles: []kiteconnect.HistoricalData{
		{Date: models.Time{Time: day("2024-01-02")}, Open: 10, High: 12, Low: 9, Close: 11, Volume: 500},
	}}
	k := NewKite(fk, lookup{"INFY": 408065})

	f, err := k.Daily(context.Background(), "INFY", day("2024-01-02"), day("2024-01-02"))
	require.NoError(t, err)
	assert.Equal(t, 408065, fk.token)
	assert.True(t, fk.to.After(day("2024-01-02")))
	require.Equal(t, 1, f.Len())
	assert.Equal(t, 11.0, f.Value(HeaderAdjClose, 0))
	assert.Equal(t, int64(500), f.Value(HeaderVolume, 0))
}

func TestKiteUnknownSymbolIsEmpty(t *testing.T) {
	f, err := NewKite(&fakeKite{}, lookup{}).Daily(context.Background(), "TCS", day("2024-01-02"), day("2024-01-02"))
	require.NoError(t, err)
	assert.True(t, f.Empty())
}

type fakeAlpaca struct {
	req  marketdata.GetBarsRequest
	bars []marketdata.Bar
}

func (a *fakeAlpaca) GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	a.req = req
	return a.bars, nil
}

func TestAlpacaDaily(t *testing.T) {
	fa := &fakeAlpaca{bars: []marketdata.Bar{
		{Timestamp: day("2024-01-02").Add(5 * time.Hour), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 42},
	}}
	f, err := NewAlpacaWithClient(fa).Daily(context.Background(), "AAPL", day("2024-01-02"), day("2024-01-02"))
	require.NoError(t, err)

	assert.Equal(t, marketdata.OneDay, fa.req.TimeFrame)
	assert.Equal(t, day("2024-01-03"), fa.req.End)
	require.Equal(t, 1, f.Len())
	assert.Equal(t, 1.5, f.Value(HeaderAdjClose, 0))
	assert.Equal(t, uint64(42), f.Value(HeaderVolume, 0))
}
