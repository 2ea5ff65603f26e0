// Package decode turns raw wire values into spreadsheet cells.
//
// Wire decoders are width-exact: asking for a u8 from an i32 value is a
// Mismatch, not an error. Only data that contradicts its own wire width
// (an "i64" carrying a string, unparseable numeric text) is Structural.
package decode

import (
	"fmt"
	"time"

	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/resultset"
	"github.com/shopspring/decimal"
)

// Outcome is the kind of a decode attempt.
type Outcome int

const (
	Decoded    Outcome = iota // Value holds the decoded data
	NoValue                   // width matched, value is SQL NULL
	Mismatch                  // value is not encoded at the requested width
	Structural                // malformed wire data; Err is set
)

func (o Outcome) String() string {
	switch o {
	case Decoded:
		return "decoded"
	case NoValue:
		return "no_value"
	case Mismatch:
		return "mismatch"
	case Structural:
		return "structural"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the tagged result of one decode attempt.
type Result[T any] struct {
	Outcome Outcome
	Value   T
	Err     error
}

// Ok reports whether the attempt produced a value.
func (r Result[T]) Ok() bool { return r.Outcome == Decoded }

func decoded[T any](v T) Result[T] { return Result[T]{Outcome: Decoded, Value: v} }

func noValue[T any]() Result[T] { return Result[T]{Outcome: NoValue} }

func mismatch[T any]() Result[T] { return Result[T]{Outcome: Mismatch} }

func structural[T any](v resultset.Value, want string) Result[T] {
	return Result[T]{
		Outcome: Structural,
		Err: errs.Newf(errs.ErrKindDecodeFailed,
			"malformed %s value: expected %s, got %T", v.Wire, want, v.Data),
	}
}

// --- width-exact decoders ---

// U8 decodes an unsigned 8-bit integer.
func U8(v resultset.Value) Result[uint8] {
	if v.Wire != resultset.WireU8 {
		return mismatch[uint8]()
	}
	if v.IsNull() {
		return noValue[uint8]()
	}
	x, ok := v.Data.(uint8)
	if !ok {
		return structural[uint8](v, "uint8")
	}
	return decoded(x)
}

// I64 decodes a signed integer of any width up to 64 bits.
func I64(v resultset.Value) Result[int64] {
	switch v.Wire {
	case resultset.WireI16, resultset.WireI32, resultset.WireI64:
	default:
		return mismatch[int64]()
	}
	if v.IsNull() {
		return noValue[int64]()
	}
	switch x := v.Data.(type) {
	case int16:
		if v.Wire == resultset.WireI16 {
			return decoded(int64(x))
		}
	case int32:
		if v.Wire == resultset.WireI32 {
			return decoded(int64(x))
		}
	case int64:
		if v.Wire == resultset.WireI64 {
			return decoded(x)
		}
	}
	return structural[int64](v, v.Wire.String())
}

// Bool decodes a bit value.
func Bool(v resultset.Value) Result[bool] {
	if v.Wire != resultset.WireBit {
		return mismatch[bool]()
	}
	if v.IsNull() {
		return noValue[bool]()
	}
	x, ok := v.Data.(bool)
	if !ok {
		return structural[bool](v, "bool")
	}
	return decoded(x)
}

// Numeric decodes a fixed-point value. Drivers may hand over the textual
// form; it is parsed here so a malformed number surfaces as Structural.
func Numeric(v resultset.Value) Result[decimal.Decimal] {
	if v.Wire != resultset.WireNumeric {
		return mismatch[decimal.Decimal]()
	}
	if v.IsNull() {
		return noValue[decimal.Decimal]()
	}
	var text string
	switch x := v.Data.(type) {
	case decimal.Decimal:
		return decoded(x)
	case string:
		text = x
	case []byte:
		text = string(x)
	default:
		return structural[decimal.Decimal](v, "decimal")
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Result[decimal.Decimal]{
			Outcome: Structural,
			Err:     errs.Wrap(errs.ErrKindDecodeFailed, fmt.Sprintf("malformed numeric %q", text), err),
		}
	}
	return decoded(d)
}

// Str decodes character data.
func Str(v resultset.Value) Result[string] {
	if v.Wire != resultset.WireString {
		return mismatch[string]()
	}
	if v.IsNull() {
		return noValue[string]()
	}
	switch x := v.Data.(type) {
	case string:
		return decoded(x)
	case []byte:
		return decoded(string(x))
	default:
		return structural[string](v, "string")
	}
}

// DateTime decodes a calendar date-time.
func DateTime(v resultset.Value) Result[time.Time] {
	if v.Wire != resultset.WireDateTime {
		return mismatch[time.Time]()
	}
	if v.IsNull() {
		return noValue[time.Time]()
	}
	x, ok := v.Data.(time.Time)
	if !ok {
		return structural[time.Time](v, "time.Time")
	}
	return decoded(x)
}
