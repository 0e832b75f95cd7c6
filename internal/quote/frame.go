package quote

import (
	"fmt"

	"github.com/sabarim/b3quotes/internal/frame"
)

// FromFrame converts a frame whose columns have already been resolved
// against RawSchema or RefineSchema into quotes. Rows with an unreadable
// trade date are an error; every other bad value becomes null.
func FromFrame(f *frame.Frame) ([]Quote, error) {
	out := make([]Quote, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		d, err := ToDate(f.Value(ColTradeDate, i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i, ColTradeDate, err)
		}
		out = append(out, Quote{
			TradeDate: d,
			Ticker:    ToString(f.Value(ColTickerSymbol, i)),
			Open:      ToDecimal(f.Value(ColOpen, i)),
			High:      ToDecimal(f.Value(ColHigh, i)),
			Low:       ToDecimal(f.Value(ColLow, i)),
			Close:     ToDecimal(f.Value(ColClose, i)),
			AdjClose:  ToDecimal(f.Value(ColAdjClose, i)),
			Volume:    ToVolume(f.Value(ColVolume, i)),
		})
	}
	return out, nil
}

// Resolve renames provider headers, validates the frame against fields and
// canonicalizes alternate column names in place.
func Resolve(f *frame.Frame, fields []Field) error {
	f.Rename(ProviderColumns)
	res, err := ValidateColumns(f.Columns(), fields)
	if err != nil {
		return err
	}
	f.Rename(res.Renames())
	return nil
}
