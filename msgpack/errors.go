package msgpack

import (
	"errors"
	"fmt"

	"github.com/PavelKisliak/bitserializer-go/policy"
)

// ErrUnexpectedEnd is returned when the underlying cursor runs out of
// data mid-value.
var ErrUnexpectedEnd = errors.New("msgpack: unexpected end of data")

// ErrSeekFailed is returned by SetPosition when the target position is
// invalid for the underlying cursor.
var ErrSeekFailed = errors.New("msgpack: seek failed")

func mismatchError(pos int64, expected, actual ValueType) error {
	return &policy.Error{
		Kind: policy.MismatchedTypesError,
		Pos:  pos,
		Msg:  fmt.Sprintf("expected %s, got %s", expected, actual),
	}
}

func overflowError(pos int64, valueType ValueType) error {
	return &policy.Error{
		Kind: policy.OverflowError,
		Pos:  pos,
		Msg:  fmt.Sprintf("%s value does not fit into the target type", valueType),
	}
}

func outOfRangeError(pos int64, msg string) error {
	return &policy.Error{Kind: policy.OutOfRange, Pos: pos, Msg: msg}
}

func parsingError(pos int64, msg string) error {
	return &policy.Error{Kind: policy.ParsingError, Pos: pos, Msg: msg}
}
