package serialization

import (
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// DbMessage is a persisted row encoded in the protocol buffers wire
// format. Field numbers are the ones of dbobjects.proto.
type DbMessage interface {
	appendFields(b []byte) []byte
	consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error)
}

// Marshal returns the wire encoding of message
func Marshal(message DbMessage) ([]byte, error) {
	return message.appendFields(nil), nil
}

// Unmarshal decodes b into message. Unknown fields are skipped.
func Unmarshal(b []byte, message DbMessage) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "malformed field tag")
		}
		b = b[n:]

		n, err := message.consumeField(num, typ, b)
		if err != nil {
			return errors.Wrapf(err, "malformed field %d", num)
		}
		b = b[n:]
	}
	return nil
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendRepeatedString(b []byte, num protowire.Number, values []string) []byte {
	for _, v := range values {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, v)
	}
	return b
}

func appendRepeatedBytes(b []byte, num protowire.Number, values [][]byte) []byte {
	for _, v := range values {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, v)
	}
	return b
}

func appendMessage(b []byte, num protowire.Number, message DbMessage) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, message.appendFields(nil))
}

func checkType(typ protowire.Type, expected protowire.Type) error {
	if typ != expected {
		return errors.Errorf("unexpected wire type %d, expected %d", typ, expected)
	}
	return nil
}

func consumeBytesValue(typ protowire.Type, b []byte) ([]byte, int, error) {
	err := checkType(typ, protowire.BytesType)
	if err != nil {
		return nil, 0, err
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeVarintValue(typ protowire.Type, b []byte) (uint64, int, error) {
	err := checkType(typ, protowire.VarintType)
	if err != nil {
		return 0, 0, err
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeString(typ protowire.Type, b []byte, v *string) (int, error) {
	value, n, err := consumeBytesValue(typ, b)
	if err != nil {
		return 0, err
	}
	*v = string(value)
	return n, nil
}

func consumeBytes(typ protowire.Type, b []byte, v *[]byte) (int, error) {
	value, n, err := consumeBytesValue(typ, b)
	if err != nil {
		return 0, err
	}
	*v = append([]byte(nil), value...)
	return n, nil
}

func consumeRepeatedString(typ protowire.Type, b []byte, values *[]string) (int, error) {
	var v string
	n, err := consumeString(typ, b, &v)
	if err != nil {
		return 0, err
	}
	*values = append(*values, v)
	return n, nil
}

func consumeRepeatedBytes(typ protowire.Type, b []byte, values *[][]byte) (int, error) {
	var v []byte
	n, err := consumeBytes(typ, b, &v)
	if err != nil {
		return 0, err
	}
	*values = append(*values, v)
	return n, nil
}

func consumeUint64(typ protowire.Type, b []byte, v *uint64) (int, error) {
	value, n, err := consumeVarintValue(typ, b)
	if err != nil {
		return 0, err
	}
	*v = value
	return n, nil
}

func consumeUint32(typ protowire.Type, b []byte, v *uint32) (int, error) {
	value, n, err := consumeVarintValue(typ, b)
	if err != nil {
		return 0, err
	}
	if value > math.MaxUint32 {
		return 0, errors.Errorf("value %d overflows uint32", value)
	}
	*v = uint32(value)
	return n, nil
}

func consumeUint8(typ protowire.Type, b []byte, v *uint8) (int, error) {
	value, n, err := consumeVarintValue(typ, b)
	if err != nil {
		return 0, err
	}
	if value > math.MaxUint8 {
		return 0, errors.Errorf("value %d overflows uint8", value)
	}
	*v = uint8(value)
	return n, nil
}

func consumeBool(typ protowire.Type, b []byte, v *bool) (int, error) {
	value, n, err := consumeVarintValue(typ, b)
	if err != nil {
		return 0, err
	}
	*v = protowire.DecodeBool(value)
	return n, nil
}

func consumeMessage(typ protowire.Type, b []byte, message DbMessage) (int, error) {
	value, n, err := consumeBytesValue(typ, b)
	if err != nil {
		return 0, err
	}
	err = Unmarshal(value, message)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func skipField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}
