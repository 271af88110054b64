package amf0

import (
	"encoding/binary"
	"io"
	"math"
)

// AMF0 data type markers
const (
	TypeNumber      byte = 0x00
	TypeBoolean     byte = 0x01
	TypeString      byte = 0x02
	TypeObject      byte = 0x03
	TypeNull        byte = 0x05
	TypeUndefined   byte = 0x06
	TypeECMAArray   byte = 0x08
	TypeObjectEnd   byte = 0x09
	TypeStrictArray byte = 0x0A
	TypeLongString  byte = 0x0C
)

// Encoder writes AMF0-encoded script data to w, in wire order. It keeps a
// running count of bytes written so callers can resolve size fields that
// depend on the encoder's own output length.
//
// All multi-byte fields are big-endian; doubles are the big-endian bytes of
// the IEEE-754 representation regardless of host order.
type Encoder struct {
	w io.Writer
	n int
}

// NewEncoder creates a new AMF0 encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Written returns the number of bytes written so far.
func (e *Encoder) Written() int {
	return e.n
}

// Marker writes a bare type marker byte.
func (e *Encoder) Marker(m byte) error {
	return e.writeByte(m)
}

// Name writes a bare string with no type marker, as used for the property
// names of object and ECMA array members. Names longer than the short-string
// limit fall back to a 4-byte length prefix.
func (e *Encoder) Name(s string) error {
	if len(s) > 0xffff {
		if err := e.writeUint32(uint32(len(s))); err != nil {
			return err
		}
		return e.write([]byte(s))
	}
	if err := e.writeUint16(uint16(len(s))); err != nil {
		return err
	}
	return e.write([]byte(s))
}

// Number writes a marked double value.
func (e *Encoder) Number(v float64) error {
	if err := e.writeByte(TypeNumber); err != nil {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	return e.write(buf[:])
}

// Boolean writes a marked boolean value.
func (e *Encoder) Boolean(v bool) error {
	if err := e.writeByte(TypeBoolean); err != nil {
		return err
	}
	if v {
		return e.writeByte(0x01)
	}
	return e.writeByte(0x00)
}

// String writes a marked string value, switching to the long form when the
// value exceeds the short length limit.
func (e *Encoder) String(s string) error {
	if len(s) > 0xffff {
		if err := e.writeByte(TypeLongString); err != nil {
			return err
		}
		if err := e.writeUint32(uint32(len(s))); err != nil {
			return err
		}
		return e.write([]byte(s))
	}
	if err := e.writeByte(TypeString); err != nil {
		return err
	}
	if err := e.writeUint16(uint16(len(s))); err != nil {
		return err
	}
	return e.write([]byte(s))
}

// NamedString writes a named string member.
func (e *Encoder) NamedString(name, value string) error {
	if err := e.Name(name); err != nil {
		return err
	}
	return e.String(value)
}

// NamedNumber writes a named double member.
func (e *Encoder) NamedNumber(name string, v float64) error {
	if err := e.Name(name); err != nil {
		return err
	}
	return e.Number(v)
}

// NamedBoolean writes a named boolean member.
func (e *Encoder) NamedBoolean(name string, v bool) error {
	if err := e.Name(name); err != nil {
		return err
	}
	return e.Boolean(v)
}

// ECMAArray opens a named ECMA array with the given associative-count hint.
// Only the header is written; the caller emits the members and decides how
// the array is closed. The count is a hint, not a terminator.
func (e *Encoder) ECMAArray(name string, count uint32) error {
	if err := e.Name(name); err != nil {
		return err
	}
	if err := e.writeByte(TypeECMAArray); err != nil {
		return err
	}
	return e.writeUint32(count)
}

// StrictArray opens a named strict array of count anonymous values. The
// caller emits exactly count marked values after it.
func (e *Encoder) StrictArray(name string, count uint32) error {
	if err := e.Name(name); err != nil {
		return err
	}
	if err := e.writeByte(TypeStrictArray); err != nil {
		return err
	}
	return e.writeUint32(count)
}

// Object opens a named object-like variable array. The caller emits named
// members and closes it with ObjectEnd.
func (e *Encoder) Object(name string) error {
	if err := e.Name(name); err != nil {
		return err
	}
	return e.writeByte(TypeObject)
}

// ObjectEnd writes the three-byte object end marker.
func (e *Encoder) ObjectEnd() error {
	return e.write([]byte{0x00, 0x00, TypeObjectEnd})
}

func (e *Encoder) write(p []byte) error {
	n, err := e.w.Write(p)
	e.n += n
	return err
}

func (e *Encoder) writeByte(b byte) error {
	return e.write([]byte{b})
}

func (e *Encoder) writeUint16(v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return e.write(buf[:])
}

func (e *Encoder) writeUint32(v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return e.write(buf[:])
}
