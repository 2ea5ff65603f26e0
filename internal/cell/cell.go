// Package cell defines the values a spreadsheet cell can hold.
//
// A Value is a closed tagged variant: exactly one Kind is active and only
// the accessor for that kind returns meaningful data.
package cell

import "fmt"

// Kind identifies the active variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindBoolean
	KindText
	KindTimestamp
	KindUnrepresentable
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	case KindUnrepresentable:
		return "unrepresentable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is one decoded cell. The zero Value is Null.
type Value struct {
	kind Kind
	i    int64
	b    bool
	s    string
}

// Integer returns an integer cell.
func Integer(v int64) Value { return Value{kind: KindInteger, i: v} }

// Boolean returns a boolean cell.
func Boolean(v bool) Value { return Value{kind: KindBoolean, b: v} }

// Text returns a text cell. The string is kept verbatim.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Timestamp returns a cell holding the rendered text of a date-time.
func Timestamp(v string) Value { return Value{kind: KindTimestamp, s: v} }

// Null returns the absent value.
func Null() Value { return Value{} }

// Unrepresentable marks a value no other variant can carry.
func Unrepresentable() Value { return Value{kind: KindUnrepresentable} }

// Kind reports the active variant.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer payload; ok is false for other kinds.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInteger }

// Bool returns the boolean payload; ok is false for other kinds.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBoolean }

// Str returns the text payload of Text and Timestamp cells.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindText || v.kind == KindTimestamp
}

// Any returns the payload as a plain Go value for sinks that take interface
// values: int64, bool, string, or nil for Null and Unrepresentable.
func (v Value) Any() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindBoolean:
		return v.b
	case KindText, KindTimestamp:
		return v.s
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return fmt.Sprintf("%d", v.i)
	case KindBoolean:
		return fmt.Sprintf("%t", v.b)
	case KindText, KindTimestamp:
		return v.s
	case KindUnrepresentable:
		return "#N/A"
	default:
		return ""
	}
}
