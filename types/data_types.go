package types

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindString Kind = iota
	KindFixedString
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindBool
	KindDate
	KindDate32
	KindDateTime64
	KindDecimal32
	KindDecimal64
	KindDecimal128
	KindDecimal256
	KindTuple
	KindArray
	KindMap
	KindNullable
)

var kindNames = map[Kind]string{
	KindString:      "String",
	KindFixedString: "FixedString",
	KindInt8:        "Int8",
	KindInt16:       "Int16",
	KindInt32:       "Int32",
	KindInt64:       "Int64",
	KindUInt8:       "UInt8",
	KindUInt16:      "UInt16",
	KindUInt32:      "UInt32",
	KindUInt64:      "UInt64",
	KindFloat32:     "Float32",
	KindFloat64:     "Float64",
	KindBool:        "Bool",
	KindDate:        "Date",
	KindDate32:      "Date32",
	KindDateTime64:  "DateTime64",
	KindDecimal32:   "Decimal32",
	KindDecimal64:   "Decimal64",
	KindDecimal128:  "Decimal128",
	KindDecimal256:  "Decimal256",
	KindTuple:       "Tuple",
	KindArray:       "Array",
	KindMap:         "Map",
	KindNullable:    "Nullable",
}

func (k Kind) String() string {
	if name, found := kindNames[k]; found {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Max decimal precision per storage width.
const (
	MaxDecimal32Precision  = 9
	MaxDecimal64Precision  = 18
	MaxDecimal128Precision = 38
	MaxDecimal256Precision = 76
)

// DataType is a node of the internal type tree. Only the fields relevant to
// Kind are set.
type DataType struct {
	Kind Kind

	// Decimal precision and scale. Scale is also the DateTime64 precision.
	Precision int
	Scale     int
	// TimeZone of a DateTime64, empty means UTC.
	TimeZone string
	// Length of a FixedString.
	Length int

	// Elem is the Array element or the Nullable nested type.
	Elem *DataType
	// Key and Value of a Map.
	Key   *DataType
	Value *DataType
	// Fields of a Tuple.
	Fields []NameAndType
}

var (
	String  = &DataType{Kind: KindString}
	Int8    = &DataType{Kind: KindInt8}
	Int16   = &DataType{Kind: KindInt16}
	Int32   = &DataType{Kind: KindInt32}
	Int64   = &DataType{Kind: KindInt64}
	UInt8   = &DataType{Kind: KindUInt8}
	UInt16  = &DataType{Kind: KindUInt16}
	UInt32  = &DataType{Kind: KindUInt32}
	UInt64  = &DataType{Kind: KindUInt64}
	Float32 = &DataType{Kind: KindFloat32}
	Float64 = &DataType{Kind: KindFloat64}
	Bool    = &DataType{Kind: KindBool}
	Date    = &DataType{Kind: KindDate}
	Date32  = &DataType{Kind: KindDate32}
)

func FixedString(length int) *DataType {
	return &DataType{Kind: KindFixedString, Length: length}
}

func DateTime64(precision int, timeZone string) *DataType {
	return &DataType{Kind: KindDateTime64, Scale: precision, TimeZone: timeZone}
}

// Decimal picks the narrowest decimal width able to hold precision digits.
func Decimal(precision, scale int) (*DataType, error) {
	if precision < 1 || precision > MaxDecimal256Precision {
		return nil, fmt.Errorf("decimal precision %d is out of range [1, %d]", precision, MaxDecimal256Precision)
	}
	if scale < 0 || scale > precision {
		return nil, fmt.Errorf("decimal scale %d is out of range [0, %d]", scale, precision)
	}

	kind := KindDecimal256
	switch {
	case precision <= MaxDecimal32Precision:
		kind = KindDecimal32
	case precision <= MaxDecimal64Precision:
		kind = KindDecimal64
	case precision <= MaxDecimal128Precision:
		kind = KindDecimal128
	}
	return &DataType{Kind: kind, Precision: precision, Scale: scale}, nil
}

func Array(elem *DataType) *DataType {
	return &DataType{Kind: KindArray, Elem: elem}
}

func Map(key, value *DataType) *DataType {
	return &DataType{Kind: KindMap, Key: key, Value: value}
}

func Tuple(fields ...NameAndType) *DataType {
	return &DataType{Kind: KindTuple, Fields: fields}
}

// Nullable wraps t, leaving already nullable types untouched.
func Nullable(t *DataType) *DataType {
	if t.IsNullable() {
		return t
	}
	return &DataType{Kind: KindNullable, Elem: t}
}

func (t *DataType) IsNullable() bool {
	return t != nil && t.Kind == KindNullable
}

// Unwrap returns the nested type of a Nullable, or t itself.
func (t *DataType) Unwrap() *DataType {
	if t.IsNullable() {
		return t.Elem
	}
	return t
}

func (t *DataType) IsDecimal() bool {
	switch t.Kind {
	case KindDecimal32, KindDecimal64, KindDecimal128, KindDecimal256:
		return true
	}
	return false
}

// Equal reports structural equality, including nested nullability and names.
func (t *DataType) Equal(other *DataType) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind ||
		t.Precision != other.Precision ||
		t.Scale != other.Scale ||
		t.TimeZone != other.TimeZone ||
		t.Length != other.Length {
		return false
	}
	if !t.Elem.Equal(other.Elem) || !t.Key.Equal(other.Key) || !t.Value.Equal(other.Value) {
		return false
	}
	return Schema(t.Fields).Equal(other.Fields)
}

func (t *DataType) String() string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind {
	case KindFixedString:
		return fmt.Sprintf("FixedString(%d)", t.Length)
	case KindDateTime64:
		if t.TimeZone != "" {
			return fmt.Sprintf("DateTime64(%d, '%s')", t.Scale, t.TimeZone)
		}
		return fmt.Sprintf("DateTime64(%d)", t.Scale)
	case KindDecimal32, KindDecimal64, KindDecimal128, KindDecimal256:
		return fmt.Sprintf("Decimal(%d, %d)", t.Precision, t.Scale)
	case KindNullable:
		return fmt.Sprintf("Nullable(%s)", t.Elem)
	case KindArray:
		return fmt.Sprintf("Array(%s)", t.Elem)
	case KindMap:
		return fmt.Sprintf("Map(%s, %s)", t.Key, t.Value)
	case KindTuple:
		parts := make([]string, 0, len(t.Fields))
		for _, field := range t.Fields {
			parts = append(parts, field.String())
		}
		return fmt.Sprintf("Tuple(%s)", strings.Join(parts, ", "))
	default:
		return t.Kind.String()
	}
}

// MarshalText lets a DataType render as its type name inside JSON documents.
func (t *DataType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
