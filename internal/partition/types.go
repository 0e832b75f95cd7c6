package partition

// RawRecord is the parquet schema of a raw partition file.
type RawRecord struct {
	TradeDate     int32    `parquet:"name=trade_date, type=INT32, convertedtype=DATE"`
	OpenPrice     *float64 `parquet:"name=open_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	HighPrice     *float64 `parquet:"name=high_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	LowPrice      *float64 `parquet:"name=low_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	ClosePrice    *float64 `parquet:"name=close_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	AdjClosePrice *float64 `parquet:"name=adj_close_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Volume        *int64   `parquet:"name=volume, type=INT64, repetitiontype=OPTIONAL"`
	TickerSymbol  string   `parquet:"name=ticker_symbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// RefinedRecord is the parquet schema of a refined partition file. Field
// order is the canonical refined column order.
type RefinedRecord struct {
	TradeDate     int32    `parquet:"name=trade_date, type=INT32, convertedtype=DATE"`
	OpeningPrice  *float64 `parquet:"name=opening_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	HighPrice     *float64 `parquet:"name=high_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	LowPrice      *float64 `parquet:"name=low_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	ClosingPrice  *float64 `parquet:"name=closing_price, type=DOUBLE, repetitiontype=OPTIONAL"`
	AdjustedClose *float64 `parquet:"name=adjusted_close, type=DOUBLE, repetitiontype=OPTIONAL"`
	VolumeTotal   int64    `parquet:"name=volume_total, type=INT64"`
	CloseMA5      *float64 `parquet:"name=close_ma_5, type=DOUBLE, repetitiontype=OPTIONAL"`
	CloseDelta    *float64 `parquet:"name=close_delta, type=DOUBLE, repetitiontype=OPTIONAL"`
	Dt            string   `parquet:"name=dt, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Ticker        string   `parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}
