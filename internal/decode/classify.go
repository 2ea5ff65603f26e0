package decode

import (
	"time"

	"github.com/koustreak/sqlsheet/internal/cell"
	"github.com/koustreak/sqlsheet/internal/resultset"
	"github.com/shopspring/decimal"
)

// TimestampLayout is the date-time text form without fractional seconds.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t as text. A non-zero fraction is printed with
// 3, 6 or 9 digits, the shortest group that holds it exactly.
func FormatTimestamp(t time.Time) string {
	ns := t.Nanosecond()
	switch {
	case ns == 0:
		return t.Format(TimestampLayout)
	case ns%1_000_000 == 0:
		return t.Format(TimestampLayout + ".000")
	case ns%1_000 == 0:
		return t.Format(TimestampLayout + ".000000")
	default:
		return t.Format(TimestampLayout + ".000000000")
	}
}

// Strategy is how a column's values are turned into cells.
type Strategy int

const (
	StrategyUnknown Strategy = iota
	StrategyDecimal
	StrategyBoolean
	StrategyInteger
	StrategyText
	StrategyTimestamp
)

func (s Strategy) String() string {
	switch s {
	case StrategyDecimal:
		return "decimal"
	case StrategyBoolean:
		return "boolean"
	case StrategyInteger:
		return "integer"
	case StrategyText:
		return "text"
	case StrategyTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Classify selects the strategy for a declared column type.
func Classify(tag resultset.TypeTag) Strategy {
	switch tag {
	case resultset.TypeNumericN, resultset.TypeDecimalN:
		return StrategyDecimal
	case resultset.TypeBitN:
		return StrategyBoolean
	case resultset.TypeIntN:
		return StrategyInteger
	case resultset.TypeBigVarChar, resultset.TypeNVarChar:
		return StrategyText
	case resultset.TypeDatetimeN, resultset.TypeDatetime2:
		return StrategyTimestamp
	default:
		return StrategyUnknown
	}
}

// Decode applies the strategy to one raw value. NoValue and Mismatch both
// mean "write nothing for this cell". StrategyUnknown always mismatches;
// callers are expected to report unknown columns before getting here.
func (s Strategy) Decode(v resultset.Value) Result[cell.Value] {
	switch s {
	case StrategyDecimal:
		return mapResult(Numeric(v), func(d decimal.Decimal) cell.Value {
			return cell.Integer(int64(narrow(d.IntPart())))
		})
	case StrategyBoolean:
		return mapResult(Bool(v), cell.Boolean)
	case StrategyInteger:
		return decodeInteger(v)
	case StrategyText:
		return mapResult(Str(v), cell.Text)
	case StrategyTimestamp:
		return mapResult(DateTime(v), func(t time.Time) cell.Value {
			return cell.Timestamp(FormatTimestamp(t))
		})
	default:
		return mismatch[cell.Value]()
	}
}

// decodeInteger tries the 8-bit width first and falls back to the 64-bit
// decoder, narrowing its result to 32 bits. A structural failure or a NULL
// at either width ends the search.
func decodeInteger(v resultset.Value) Result[cell.Value] {
	small := U8(v)
	if small.Outcome != Mismatch {
		return mapResult(small, func(x uint8) cell.Value {
			return cell.Integer(int64(x))
		})
	}
	return mapResult(I64(v), func(x int64) cell.Value {
		return cell.Integer(int64(narrow(x)))
	})
}

// narrow keeps the low 32 bits, two's complement.
func narrow(x int64) int32 {
	return int32(x)
}

func mapResult[T any](r Result[T], f func(T) cell.Value) Result[cell.Value] {
	if r.Outcome != Decoded {
		return Result[cell.Value]{Outcome: r.Outcome, Err: r.Err}
	}
	return decoded(f(r.Value))
}
