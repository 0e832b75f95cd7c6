package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/sabarim/b3quotes/internal/apperr"
	"github.com/sabarim/b3quotes/internal/frame"
)

// AlpacaBars is the subset of the Alpaca market-data client used here.
type AlpacaBars interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Alpaca fetches raw (unadjusted) daily bars from the Alpaca market-data
// API. Adj Close mirrors Close.
type Alpaca struct {
	client AlpacaBars
}

// NewAlpaca creates an Alpaca provider from credentials. An empty dataURL
// uses the client's default host.
func NewAlpaca(apiKey, apiSecret, dataURL string) *Alpaca {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &Alpaca{client: marketdata.NewClient(opts)}
}

// NewAlpacaWithClient wraps an existing client.
func NewAlpacaWithClient(client AlpacaBars) *Alpaca {
	return &Alpaca{client: client}
}

func (a *Alpaca) Name() string { return "alpaca" }

// Daily fetches daily bars between start and end, both inclusive.
func (a *Alpaca) Daily(ctx context.Context, symbol string, start, end time.Time) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bars, err := a.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Start:      start,
		End:        endOfRange(end),
		Adjustment: marketdata.Raw,
	})
	if err != nil {
		return nil, apperr.Remote("alpaca", "bars", fmt.Errorf("%s: %w", symbol, err))
	}

	f := newFrame()
	for _, b := range bars {
		if err := f.AppendRow(b.Timestamp.UTC(), b.Open, b.High, b.Low, b.Close, b.Close, b.Volume); err != nil {
			return nil, err
		}
	}
	return f, nil
}
