package consensushashing

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// byteWriter accumulates the canonical encoding of a block or a transaction.
// The first failed write sticks, so callers check err once at the end.
type byteWriter struct {
	buffer bytes.Buffer
	err    error
}

func (w *byteWriter) writeUint8(value uint8) {
	w.buffer.WriteByte(value)
}

func (w *byteWriter) writeUint32(value uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], value)
	w.buffer.Write(scratch[:])
}

func (w *byteWriter) writeUint64(value uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], value)
	w.buffer.Write(scratch[:])
}

func (w *byteWriter) writeBytes(value []byte) {
	w.buffer.Write(value)
}

func (w *byteWriter) writeString(value string) {
	w.buffer.WriteString(value)
}

// writeAmount writes a non-negative amount that fits in 8 bytes
func (w *byteWriter) writeAmount(name string, value *big.Int) {
	if w.err != nil {
		return
	}
	if value == nil {
		w.err = errors.Errorf("%s is missing", name)
		return
	}
	if value.Sign() < 0 || !value.IsUint64() {
		w.err = errors.Errorf("%s %s is out of range", name, value)
		return
	}
	w.writeUint64(value.Uint64())
}

// writeNumericID writes an id or an address as its 8 byte big endian
// numeric value. An empty id is written as zeros.
func (w *byteWriter) writeNumericID(name string, id string) {
	if w.err != nil {
		return
	}
	var scratch [8]byte
	if id != "" {
		value, err := strconv.ParseUint(strings.TrimSuffix(id, addressSuffix), 10, 64)
		if err != nil {
			w.err = errors.Wrapf(err, "malformed %s %s", name, id)
			return
		}
		binary.BigEndian.PutUint64(scratch[:], value)
	}
	w.buffer.Write(scratch[:])
}

func (w *byteWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buffer.Bytes(), nil
}
