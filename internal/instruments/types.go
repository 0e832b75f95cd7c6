package instruments

// Instrument is one row of the Kite instrument dump
type Instrument struct {
	InstrumentToken int64
	ExchangeToken   int64
	TradingSymbol   string
	Name            string
	InstrumentType  string
	Segment         string
	Exchange        string
}
