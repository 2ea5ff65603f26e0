package resultset

import "fmt"

// TypeTag is the protocol-level type a column reports for its values.
// The names follow the SQL Server TDS tags; the Postgres and MySQL drivers
// map their native types onto the closest tag.
type TypeTag int

const (
	TypeOther TypeTag = iota
	TypeIntN
	TypeBitN
	TypeNumericN
	TypeDecimalN
	TypeBigVarChar
	TypeNVarChar
	TypeDatetimeN
	TypeDatetime2
	TypeBigChar
	TypeNChar
	TypeText
	TypeNText
	TypeFloatN
	TypeMoneyN
	TypeGUID
	TypeBigVarBin
	TypeXML
	TypeDateN
	TypeTimeN
	TypeDateTimeOffsetN
)

var tagNames = map[TypeTag]string{
	TypeOther:           "Other",
	TypeIntN:            "IntN",
	TypeBitN:            "BitN",
	TypeNumericN:        "NumericN",
	TypeDecimalN:        "DecimalN",
	TypeBigVarChar:      "BigVarChar",
	TypeNVarChar:        "NVarChar",
	TypeDatetimeN:       "DatetimeN",
	TypeDatetime2:       "Datetime2",
	TypeBigChar:         "BigChar",
	TypeNChar:           "NChar",
	TypeText:            "Text",
	TypeNText:           "NText",
	TypeFloatN:          "FloatN",
	TypeMoneyN:          "MoneyN",
	TypeGUID:            "Guid",
	TypeBigVarBin:       "BigVarBin",
	TypeXML:             "Xml",
	TypeDateN:           "DateN",
	TypeTimeN:           "TimeN",
	TypeDateTimeOffsetN: "DateTimeOffsetN",
}

func (t TypeTag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TypeTag(%d)", int(t))
}

// Wire is the concrete encoding a single value arrived in. A column tagged
// IntN may carry U8, I16, I32 or I64 values depending on the declared
// width of the source column.
type Wire int

const (
	WireUnknown Wire = iota
	WireU8
	WireI16
	WireI32
	WireI64
	WireBit
	WireNumeric
	WireString
	WireDateTime
	WireFloat
	WireBinary
)

func (w Wire) String() string {
	switch w {
	case WireU8:
		return "u8"
	case WireI16:
		return "i16"
	case WireI32:
		return "i32"
	case WireI64:
		return "i64"
	case WireBit:
		return "bit"
	case WireNumeric:
		return "numeric"
	case WireString:
		return "string"
	case WireDateTime:
		return "datetime"
	case WireFloat:
		return "float"
	case WireBinary:
		return "binary"
	default:
		return "unknown"
	}
}
