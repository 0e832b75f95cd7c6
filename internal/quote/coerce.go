package quote

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ToDecimal coerces a loosely typed value to a decimal. Anything that is not
// a finite number, or a string that parses as one, becomes null.
func ToDecimal(v any) decimal.NullDecimal {
	switch n := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.Decimal:
		return decimal.NewNullDecimal(n)
	case decimal.NullDecimal:
		return n
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat(n))
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat32(n))
	case *float64:
		if n == nil {
			return decimal.NullDecimal{}
		}
		return ToDecimal(*n)
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(n)))
	case int32:
		return decimal.NewNullDecimal(decimal.NewFromInt32(n))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(n))
	case uint64:
		return decimal.NewNullDecimal(decimal.NewFromUint64(n))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	default:
		return decimal.NullDecimal{}
	}
}

// ToInt coerces a loosely typed value to a nullable integer. Fractional or
// unparseable values become null.
func ToInt(v any) *int64 {
	var out int64
	switch n := v.(type) {
	case nil:
		return nil
	case int:
		out = int64(n)
	case int32:
		out = int64(n)
	case int64:
		out = n
	case *int64:
		return n
	case uint64:
		if n > math.MaxInt64 {
			return nil
		}
		out = int64(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return nil
		}
		out = int64(n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			d := ToDecimal(n)
			if !d.Valid || !d.Decimal.IsInteger() {
				return nil
			}
			i = d.Decimal.IntPart()
		}
		out = i
	default:
		return nil
	}
	return &out
}

// ToVolume coerces a traded volume. Volumes are non-negative; a negative
// value is treated like an unreadable one and becomes null.
func ToVolume(v any) *int64 {
	n := ToInt(v)
	if n == nil || *n < 0 {
		return nil
	}
	return n
}

// ToDate coerces a loosely typed value to a UTC calendar date. Integers of
// type int32 are days since the Unix epoch (parquet DATE), int64 values are
// Unix milliseconds, strings are ISO dates or RFC 3339 timestamps.
func ToDate(v any) (time.Time, error) {
	switch n := v.(type) {
	case time.Time:
		return Date(n), nil
	case int32:
		return time.Unix(int64(n)*86400, 0).UTC(), nil
	case int64:
		return Date(time.UnixMilli(n).UTC()), nil
	case string:
		s := strings.TrimSpace(n)
		if t, err := time.Parse(DateLayout, s); err == nil {
			return t, nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return Date(t), nil
		}
		return time.Time{}, fmt.Errorf("invalid date %q", n)
	case nil:
		return time.Time{}, fmt.Errorf("null date")
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %T", v)
	}
}

// ToString returns v as a string; nulls become "".
func ToString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}
