package database

import (
	"math"
	"strconv"
	"time"

	"github.com/koustreak/sqlsheet/internal/resultset"
	"github.com/shopspring/decimal"
)

// textTimeLayouts covers date-times delivered as text (MySQL without
// parseTime, SQLite-style strings).
var textTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02",
}

// Convert shapes a scanned driver value into a raw wire value of width w.
// NULL keeps its width. A value that cannot be shaped is passed through as
// Raw so the decoder reports it as malformed instead of guessing.
func Convert(w resultset.Wire, raw any) resultset.Value {
	if raw == nil {
		return resultset.Null(w)
	}

	switch w {
	case resultset.WireU8:
		if x, ok := asInt64(raw); ok && x >= 0 && x <= math.MaxUint8 {
			return resultset.U8(uint8(x))
		}
	case resultset.WireI16:
		if x, ok := asInt64(raw); ok && x >= math.MinInt16 && x <= math.MaxInt16 {
			return resultset.I16(int16(x))
		}
	case resultset.WireI32:
		if x, ok := asInt64(raw); ok && x >= math.MinInt32 && x <= math.MaxInt32 {
			return resultset.I32(int32(x))
		}
	case resultset.WireI64:
		if x, ok := asInt64(raw); ok {
			return resultset.I64(x)
		}
	case resultset.WireBit:
		if b, ok := asBool(raw); ok {
			return resultset.Bit(b)
		}
	case resultset.WireNumeric:
		switch x := raw.(type) {
		case decimal.Decimal:
			return resultset.Numeric(x)
		case []byte:
			return resultset.Raw(w, string(x))
		case string:
			return resultset.Raw(w, x)
		case float64:
			return resultset.Numeric(decimal.NewFromFloat(x))
		case int64:
			return resultset.Numeric(decimal.NewFromInt(x))
		}
	case resultset.WireString:
		switch x := raw.(type) {
		case string:
			return resultset.String(x)
		case []byte:
			return resultset.String(string(x))
		}
	case resultset.WireDateTime:
		if t, ok := asTime(raw); ok {
			return resultset.DateTime(t)
		}
	case resultset.WireFloat:
		switch x := raw.(type) {
		case float64:
			return resultset.Float(x)
		case float32:
			return resultset.Float(float64(x))
		case []byte:
			if f, err := strconv.ParseFloat(string(x), 64); err == nil {
				return resultset.Float(f)
			}
		}
	case resultset.WireBinary:
		switch x := raw.(type) {
		case []byte:
			return resultset.Binary(append([]byte(nil), x...))
		case string:
			return resultset.Binary([]byte(x))
		}
	}
	return resultset.Raw(w, raw)
}

func asInt64(raw any) (int64, bool) {
	switch x := raw.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case int:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), true
		}
	case []byte:
		if n, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return n, true
		}
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func asBool(raw any) (bool, bool) {
	switch x := raw.(type) {
	case bool:
		return x, true
	case int64:
		if x == 0 || x == 1 {
			return x == 1, true
		}
	case []byte:
		// MySQL BIT(1) arrives as a single raw byte, text protocol as "0"/"1".
		if len(x) == 1 {
			switch x[0] {
			case 0, '0':
				return false, true
			case 1, '1':
				return true, true
			}
		}
	}
	return false, false
}

func asTime(raw any) (time.Time, bool) {
	var s string
	switch x := raw.(type) {
	case time.Time:
		return x, true
	case []byte:
		s = string(x)
	case string:
		s = x
	default:
		return time.Time{}, false
	}
	for _, layout := range textTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
