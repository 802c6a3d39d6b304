package webauthn

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

var (
	errCBORTruncated = errors.New("cbor item truncated")
	errCBORBadItem   = errors.New("unsupported cbor item")
)

// cborDecoder is a minimal CBOR item reader: major type plus argument, and
// only the item shapes attestation payloads actually contain. Indefinite
// lengths and reserved additional-info values are rejected outright instead
// of guessing.
type cborDecoder struct {
	buf []byte
	off int
}

func newCBORDecoder(buf []byte) *cborDecoder {
	return &cborDecoder{buf: buf}
}

// head reads one item header and returns its major type and argument.
func (d *cborDecoder) head() (major byte, arg uint64, err error) {
	if d.off >= len(d.buf) {
		return 0, 0, errCBORTruncated
	}
	b := d.buf[d.off]
	d.off++
	major = b >> 5
	info := b & 0x1f

	switch {
	case info < 24:
		return major, uint64(info), nil
	case info == 24:
		if d.off+1 > len(d.buf) {
			return 0, 0, errCBORTruncated
		}
		arg = uint64(d.buf[d.off])
		d.off++
	case info == 25:
		if d.off+2 > len(d.buf) {
			return 0, 0, errCBORTruncated
		}
		arg = uint64(binary.BigEndian.Uint16(d.buf[d.off:]))
		d.off += 2
	case info == 26:
		if d.off+4 > len(d.buf) {
			return 0, 0, errCBORTruncated
		}
		arg = uint64(binary.BigEndian.Uint32(d.buf[d.off:]))
		d.off += 4
	case info == 27:
		if d.off+8 > len(d.buf) {
			return 0, 0, errCBORTruncated
		}
		arg = binary.BigEndian.Uint64(d.buf[d.off:])
		d.off += 8
	default:
		// 28-30 are reserved, 31 is an indefinite length marker.
		return 0, 0, errCBORBadItem
	}
	return major, arg, nil
}

// readInt reads a major type 0 or 1 integer.
func (d *cborDecoder) readInt() (int64, error) {
	major, arg, err := d.head()
	if err != nil {
		return 0, err
	}
	switch major {
	case 0:
		if arg > math.MaxInt64 {
			return 0, errCBORBadItem
		}
		return int64(arg), nil
	case 1:
		if arg > math.MaxInt64-1 {
			return 0, errCBORBadItem
		}
		return -1 - int64(arg), nil
	default:
		return 0, errCBORBadItem
	}
}

// readBytes reads a major type 2 byte string.
func (d *cborDecoder) readBytes() ([]byte, error) {
	major, arg, err := d.head()
	if err != nil {
		return nil, err
	}
	if major != 2 {
		return nil, errCBORBadItem
	}
	return d.take(arg)
}

// readString reads a major type 3 text string.
func (d *cborDecoder) readString() (string, error) {
	major, arg, err := d.head()
	if err != nil {
		return "", err
	}
	if major != 3 {
		return "", errCBORBadItem
	}
	b, err := d.take(arg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readMapHeader reads a major type 5 map header and returns the entry count.
func (d *cborDecoder) readMapHeader() (int, error) {
	major, arg, err := d.head()
	if err != nil {
		return 0, err
	}
	if major != 5 || arg > uint64(len(d.buf)) {
		return 0, errCBORBadItem
	}
	return int(arg), nil
}

// skip consumes one item of any supported shape, recursing into arrays and
// maps. Needed to step over attestation statements we do not interpret.
func (d *cborDecoder) skip() error {
	major, arg, err := d.head()
	if err != nil {
		return err
	}
	switch major {
	case 0, 1, 7:
		return nil
	case 2, 3:
		_, err := d.take(arg)
		return err
	case 4:
		if arg > uint64(len(d.buf)) {
			return errCBORBadItem
		}
		for i := uint64(0); i < arg; i++ {
			if err := d.skip(); err != nil {
				return err
			}
		}
		return nil
	case 5:
		if arg > uint64(len(d.buf)) {
			return errCBORBadItem
		}
		for i := uint64(0); i < arg; i++ {
			if err := d.skip(); err != nil {
				return err
			}
			if err := d.skip(); err != nil {
				return err
			}
		}
		return nil
	case 6:
		return d.skip()
	default:
		return errCBORBadItem
	}
}

func (d *cborDecoder) done() bool {
	return d.off == len(d.buf)
}

func (d *cborDecoder) take(n uint64) ([]byte, error) {
	if n > uint64(len(d.buf)-d.off) {
		return nil, errCBORTruncated
	}
	b := d.buf[d.off : d.off+int(n)]
	d.off += int(n)
	return b, nil
}
