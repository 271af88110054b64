package amf0

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Decoder reads AMF0-encoded script data from r.
//
// ECMA arrays are decoded by their associative-count hint rather than by a
// terminator: the onMetaData array written by this module carries an exact
// count and no trailing end marker.
type Decoder struct {
	r io.Reader
}

// NewDecoder creates a new AMF0 decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads the next marked value.
func (d *Decoder) Decode() (interface{}, error) {
	marker, err := d.readByte()
	if err != nil {
		return nil, err
	}

	switch marker {
	case TypeNumber:
		return d.decodeNumber()
	case TypeBoolean:
		return d.decodeBoolean()
	case TypeString:
		return d.DecodeName()
	case TypeLongString:
		return d.decodeLongString()
	case TypeObject:
		return d.decodeObject()
	case TypeECMAArray:
		return d.DecodeECMAArray()
	case TypeStrictArray:
		return d.decodeStrictArray()
	case TypeNull, TypeUndefined:
		return nil, nil
	default:
		return nil, fmt.Errorf("amf0: unsupported type marker 0x%02x", marker)
	}
}

// DecodeName reads a bare short string with no type marker.
func (d *Decoder) DecodeName() (string, error) {
	var length uint16
	if err := binary.Read(d.r, binary.BigEndian, &length); err != nil {
		return "", err
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// DecodeECMAArray reads the associative-count hint and exactly that many
// named members. No end marker is consumed.
func (d *Decoder) DecodeECMAArray() (map[string]interface{}, error) {
	var count uint32
	if err := binary.Read(d.r, binary.BigEndian, &count); err != nil {
		return nil, err
	}

	arr := make(map[string]interface{}, count)
	for i := uint32(0); i < count; i++ {
		name, err := d.DecodeName()
		if err != nil {
			return nil, err
		}
		value, err := d.Decode()
		if err != nil {
			return nil, err
		}
		arr[name] = value
	}
	return arr, nil
}

func (d *Decoder) decodeNumber() (float64, error) {
	var bits uint64
	if err := binary.Read(d.r, binary.BigEndian, &bits); err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func (d *Decoder) decodeBoolean() (bool, error) {
	b, err := d.readByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (d *Decoder) decodeLongString() (string, error) {
	var length uint32
	if err := binary.Read(d.r, binary.BigEndian, &length); err != nil {
		return "", err
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// decodeObject reads named members until the object end marker.
func (d *Decoder) decodeObject() (map[string]interface{}, error) {
	obj := make(map[string]interface{})

	for {
		var nameLen uint16
		if err := binary.Read(d.r, binary.BigEndian, &nameLen); err != nil {
			return nil, err
		}

		if nameLen == 0 {
			marker, err := d.readByte()
			if err != nil {
				return nil, err
			}
			if marker == TypeObjectEnd {
				return obj, nil
			}
			return nil, fmt.Errorf("amf0: expected object end marker, got 0x%02x", marker)
		}

		nameBuf := make([]byte, nameLen)
		if _, err := io.ReadFull(d.r, nameBuf); err != nil {
			return nil, err
		}

		value, err := d.Decode()
		if err != nil {
			return nil, err
		}
		obj[string(nameBuf)] = value
	}
}

func (d *Decoder) decodeStrictArray() ([]interface{}, error) {
	var count uint32
	if err := binary.Read(d.r, binary.BigEndian, &count); err != nil {
		return nil, err
	}

	values := make([]interface{}, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := d.Decode()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func (d *Decoder) readByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
