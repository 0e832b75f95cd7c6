// Package provider fetches daily OHLCV history from market-data vendors.
//
// Every provider returns a frame keyed by the vendor-style headers in
// Headers; renaming to canonical column names is the caller's job.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sabarim/b3quotes/internal/auth"
	"github.com/sabarim/b3quotes/internal/config"
	"github.com/sabarim/b3quotes/internal/frame"
	"github.com/sabarim/b3quotes/internal/instruments"
)

// Vendor-style column headers.
const (
	HeaderDate     = "Date"
	HeaderOpen     = "Open"
	HeaderHigh     = "High"
	HeaderLow      = "Low"
	HeaderClose    = "Close"
	HeaderAdjClose = "Adj Close"
	HeaderVolume   = "Volume"
)

// Headers is the column order of every provider frame.
var Headers = []string{
	HeaderDate, HeaderOpen, HeaderHigh, HeaderLow, HeaderClose, HeaderAdjClose, HeaderVolume,
}

// Provider returns daily bars for one symbol over an inclusive date range.
// An empty frame means the vendor had no data; it is not an error.
type Provider interface {
	Name() string
	Daily(ctx context.Context, symbol string, start, end time.Time) (*frame.Frame, error)
}

// New builds the provider selected by cfg.Provider.Name.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (Provider, error) {
	timeout := time.Duration(cfg.Provider.TimeoutSeconds) * time.Second
	switch cfg.Provider.Name {
	case "yahoo", "":
		return NewYahoo(cfg.Provider.YahooBaseURL, &http.Client{Timeout: timeout}), nil
	case "alpaca":
		return NewAlpaca(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL), nil
	case "kite":
		am := auth.NewAuthManager(cfg.Auth, log)
		client, err := am.GetClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to authenticate with kite: %w", err)
		}
		im := instruments.NewInstrumentManager(cfg.Broker, &http.Client{Timeout: timeout}, log)
		if err := im.DownloadInstruments(ctx); err != nil {
			return nil, fmt.Errorf("failed to download instruments: %w", err)
		}
		return NewKite(client, im), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}
}

func newFrame() *frame.Frame {
	return frame.New(Headers...)
}

func nullable(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// endOfRange returns the exclusive upper bound for an inclusive end date.
func endOfRange(end time.Time) time.Time {
	y, m, d := end.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
