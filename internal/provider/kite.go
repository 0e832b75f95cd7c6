package provider

import (
	"context"
	"fmt"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"github.com/sabarim/b3quotes/internal/apperr"
	"github.com/sabarim/b3quotes/internal/frame"
	"github.com/sabarim/b3quotes/internal/instruments"
)

// KiteHistory is the subset of the Kite client used for daily history.
type KiteHistory interface {
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

// InstrumentLookup resolves a trading symbol to a Kite instrument.
type InstrumentLookup interface {
	GetInstrumentBySymbol(symbol string) (instruments.Instrument, error)
}

// Kite fetches daily candles from the Zerodha Kite historical API. Kite
// publishes no adjusted close, so Adj Close mirrors Close.
type Kite struct {
	client      KiteHistory
	instruments InstrumentLookup
}

// NewKite creates a Kite provider.
func NewKite(client KiteHistory, lookup InstrumentLookup) *Kite {
	return &Kite{client: client, instruments: lookup}
}

func (k *Kite) Name() string { return "kite" }

// Daily fetches day candles between start and end, both inclusive. Unknown
// symbols yield an empty frame.
func (k *Kite) Daily(ctx context.Context, symbol string, start, end time.Time) (*frame.Frame, error) {
	f := newFrame()
	instrument, err := k.instruments.GetInstrumentBySymbol(symbol)
	if err != nil {
		return f, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candles, err := k.client.GetHistoricalData(
		int(instrument.InstrumentToken),
		"day",
		start,
		endOfRange(end).Add(-time.Second),
		false,
		false,
	)
	if err != nil {
		return nil, apperr.Remote("kite", "historical", fmt.Errorf("%s: %w", symbol, err))
	}

	for _, c := range candles {
		if err := f.AppendRow(c.Date.Time, c.Open, c.High, c.Low, c.Close, c.Close, int64(c.Volume)); err != nil {
			return nil, err
		}
	}
	return f, nil
}
