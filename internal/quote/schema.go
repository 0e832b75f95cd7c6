package quote

import (
	"github.com/sabarim/b3quotes/internal/apperr"
)

// Field declares a required column and the alternate names it may appear
// under in an input dataset.
type Field struct {
	Name       string
	Alternates []string
}

// ProviderColumns maps the headers used by market-data providers (and by
// older raw files) to canonical raw column names.
var ProviderColumns = map[string]string{
	"Date":      ColTradeDate,
	"Open":      ColOpen,
	"High":      ColHigh,
	"Low":       ColLow,
	"Close":     ColClose,
	"Adj Close": ColAdjClose,
	"Volume":    ColVolume,
}

// RawSchema is every column a raw partition must carry once provider headers
// have been renamed.
var RawSchema = []Field{
	{Name: ColTradeDate},
	{Name: ColOpen},
	{Name: ColHigh},
	{Name: ColLow},
	{Name: ColClose},
	{Name: ColAdjClose},
	{Name: ColVolume},
	{Name: ColTickerSymbol},
}

// RefineSchema is what the aggregation step needs. The ticker may be named
// either ticker_symbol or ticker.
var RefineSchema = []Field{
	{Name: ColTickerSymbol, Alternates: []string{ColTicker}},
	{Name: ColTradeDate},
	{Name: ColOpen},
	{Name: ColHigh},
	{Name: ColLow},
	{Name: ColClose},
	{Name: ColAdjClose},
	{Name: ColVolume},
}

// Resolution is the outcome of a successful schema check: for each declared
// field, the column that actually carries it.
type Resolution map[string]string

// Renames returns the alternate-to-canonical renames implied by r.
func (r Resolution) Renames() map[string]string {
	out := make(map[string]string)
	for canonical, actual := range r {
		if canonical != actual {
			out[actual] = canonical
		}
	}
	return out
}

// ValidateColumns checks columns against fields. Every missing field is
// reported in a single SchemaError that also lists the available columns.
func ValidateColumns(columns []string, fields []Field) (Resolution, error) {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	res := make(Resolution, len(fields))
	var missing []string
	for _, f := range fields {
		switch {
		case present[f.Name]:
			res[f.Name] = f.Name
		default:
			found := false
			for _, alt := range f.Alternates {
				if present[alt] {
					res[f.Name] = alt
					found = true
					break
				}
			}
			if !found {
				missing = append(missing, f.Name)
			}
		}
	}

	if len(missing) > 0 {
		available := make([]string, len(columns))
		copy(available, columns)
		return nil, &apperr.SchemaError{Missing: missing, Available: available}
	}
	return res, nil
}
