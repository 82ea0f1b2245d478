// Package msgpack implements the MessagePack reader and writer
// described in SPEC_FULL.md §4.6/§4.7, ported from the byte-code
// dispatch and policy-driven error handling of
// original_source/src/msgpack/msgpack_readers.cpp.
package msgpack

// ValueType is the closed set of tagged value kinds discoverable at
// the stream cursor without consuming it.
type ValueType uint8

const (
	Unknown ValueType = iota
	Nil
	Boolean
	UnsignedInteger
	SignedInteger
	Float
	Double
	String
	Array
	BinaryArray
	Map
	Ext
	Timestamp
)

func (t ValueType) String() string {
	switch t {
	case Nil:
		return "nil"
	case Boolean:
		return "boolean"
	case UnsignedInteger:
		return "unsigned integer"
	case SignedInteger:
		return "signed integer"
	case Float:
		return "float"
	case Double:
		return "double"
	case String:
		return "string"
	case Array:
		return "array"
	case BinaryArray:
		return "binary array"
	case Map:
		return "map"
	case Ext:
		return "ext"
	case Timestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Ts represents a MessagePack timestamp: seconds and nanoseconds are
// both signed-wide for symmetry across the ts32/ts64/ts96 wire
// layouts, even though nanoseconds is only ever in [0, 999999999].
type Ts struct {
	Seconds     int64
	Nanoseconds int32
}

// RawExt is a non-timestamp Ext value: a type code other than the
// reserved -1 (which the reader resolves to Ts instead), paired with
// its raw payload bytes.
type RawExt struct {
	TypeCode int8
	Data     []byte
}

// extFamilyTimestamp is the reserved Ext type code the reader
// resolves to a Ts rather than a RawExt.
const extFamilyTimestamp int8 = -1
