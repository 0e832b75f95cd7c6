package instruments

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sabarim/b3quotes/internal/apperr"
	"github.com/sabarim/b3quotes/internal/config"
)

// InstrumentManager resolves trading symbols to Kite instrument tokens
type InstrumentManager struct {
	config      config.BrokerConfig
	client      *http.Client
	log         *slog.Logger
	instruments map[string]Instrument
}

// NewInstrumentManager creates a new instrument manager
func NewInstrumentManager(cfg config.BrokerConfig, client *http.Client, log *slog.Logger) *InstrumentManager {
	if client == nil {
		client = http.DefaultClient
	}
	return &InstrumentManager{
		config:      cfg,
		client:      client,
		log:         log.With("component", "instruments"),
		instruments: make(map[string]Instrument),
	}
}

// DownloadInstruments downloads the NSE instrument dump, caches it on disk
// and loads it into memory
func (im *InstrumentManager) DownloadInstruments(ctx context.Context) error {
	im.log.Info("downloading instruments", "url", im.config.InstrumentsNSEURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, im.config.InstrumentsNSEURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build instruments request: %w", err)
	}
	resp, err := im.client.Do(req)
	if err != nil {
		return apperr.Remote("kite", "instruments", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperr.Remote("kite", "instruments", fmt.Errorf("status code: %d", resp.StatusCode))
	}

	if err := os.MkdirAll(filepath.Dir(im.config.InstrumentsPath), 0755); err != nil {
		return fmt.Errorf("failed to create instruments directory: %w", err)
	}
	file, err := os.Create(im.config.InstrumentsPath)
	if err != nil {
		return fmt.Errorf("failed to create instruments file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("failed to save instruments: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind file: %w", err)
	}

	return im.Load(file)
}

// Load parses an instrument dump in Kite CSV format. Only NSE rows are kept.
func (im *InstrumentManager) Load(r io.Reader) error {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make(map[string]int)
	for i, col := range header {
		columns[strings.TrimSpace(col)] = i
	}
	for _, required := range []string{"instrument_token", "tradingsymbol", "exchange"} {
		if _, ok := columns[required]; !ok {
			return fmt.Errorf("instrument dump has no %q column", required)
		}
	}
	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV record: %w", err)
		}
		if field(record, "exchange") != "NSE" {
			continue
		}

		instrument := Instrument{
			InstrumentToken: parseIntOrZero(field(record, "instrument_token")),
			ExchangeToken:   parseIntOrZero(field(record, "exchange_token")),
			TradingSymbol:   field(record, "tradingsymbol"),
			Name:            field(record, "name"),
			InstrumentType:  field(record, "instrument_type"),
			Segment:         field(record, "segment"),
			Exchange:        field(record, "exchange"),
		}
		im.instruments[instrument.TradingSymbol] = instrument
		count++
	}

	im.log.Info("loaded instruments", "exchange", "NSE", "count", count)
	return nil
}

// GetInstrumentBySymbol returns an instrument by its trading symbol
func (im *InstrumentManager) GetInstrumentBySymbol(symbol string) (Instrument, error) {
	instrument, ok := im.instruments[symbol]
	if !ok {
		return Instrument{}, fmt.Errorf("instrument not found: %s", symbol)
	}
	return instrument, nil
}

func parseIntOrZero(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
