/*Package wire implements the ASAP3 binary codec: big-endian primitives,
length-prefixed even-padded strings, heterogeneous DataLists, and the
16-bit additive checksum used to frame every request and response.

All integers and floats on the wire are big-endian. Every function here is
byte-exact and never panics on malformed input; out-of-range reads return
the zero value for the requested type and still advance by the type's
width, so a caller iterating a DataList against a truncated body degrades
to zero-filled trailing fields instead of crashing.
*/
package wire

import (
	"encoding/binary"
	"math"
)

// DataType is the closed set of primitive kinds a DataValue may hold.
// Numeric codes are part of the wire protocol's implicit, per-command
// schema negotiation and must not be renumbered.
type DataType uint16

const (
	Float32 DataType = 0
	Float64 DataType = 1
	String  DataType = 2
	Int16   DataType = 3
	Uint16  DataType = 4
	Int32   DataType = 5
	Uint32  DataType = 6
	Int64   DataType = 7
	Uint64  DataType = 8
	NoType  DataType = 0xFF
)

// String implements fmt.Stringer for log/debug output.
func (t DataType) String() string {
	switch t {
	case Float32:
		return "FLOAT32"
	case Float64:
		return "FLOAT64"
	case String:
		return "STRING"
	case Int16:
		return "INT16"
	case Uint16:
		return "UINT16"
	case Int32:
		return "INT32"
	case Uint32:
		return "UINT32"
	case Int64:
		return "INT64"
	case Uint64:
		return "UINT64"
	case NoType:
		return "NoType"
	default:
		return "UNKNOWN"
	}
}

// DataValue is a named, typed payload entry. Name is metadata for
// logging/lookup only and never appears on the wire.
type DataValue struct {
	Name  string
	Type  DataType
	Value any
}

// DataList is an ordered, heterogeneous sequence of DataValues. On the
// wire only the values appear; ordering and types come from the
// per-command schema shared by both peers (see response.go).
type DataList []DataValue

// ZeroValue returns the default Go value stored in a DataValue of the
// given type, used whenever a decode cannot find enough bytes.
func ZeroValue(t DataType) any {
	switch t {
	case Float32:
		return float32(0)
	case Float64:
		return float64(0)
	case String:
		return ""
	case Int16:
		return int16(0)
	case Uint16:
		return uint16(0)
	case Int32:
		return int32(0)
	case Uint32:
		return uint32(0)
	case Int64:
		return int64(0)
	case Uint64:
		return uint64(0)
	default:
		return float32(0)
	}
}

// ensure grows buf so that indices [0, end) are addressable, preserving
// existing content, mirroring the C++ source's body.resize(length).
func ensure(buf []byte, end int) []byte {
	if len(buf) >= end {
		return buf
	}
	grown := make([]byte, end)
	copy(grown, buf)
	return grown
}

// PutUint16 writes v at offset, growing buf if needed, and returns the
// (possibly reallocated) buffer.
func PutUint16(buf []byte, offset int, v uint16) []byte {
	buf = ensure(buf, offset+2)
	binary.BigEndian.PutUint16(buf[offset:], v)
	return buf
}

// PutUint32 writes v at offset, growing buf if needed.
func PutUint32(buf []byte, offset int, v uint32) []byte {
	buf = ensure(buf, offset+4)
	binary.BigEndian.PutUint32(buf[offset:], v)
	return buf
}

// PutUint64 writes v at offset, growing buf if needed.
func PutUint64(buf []byte, offset int, v uint64) []byte {
	buf = ensure(buf, offset+8)
	binary.BigEndian.PutUint64(buf[offset:], v)
	return buf
}

// PutString writes the length-prefixed, even-padded string form of s at
// offset: a 2-byte big-endian length followed by s's bytes followed by a
// single zero pad byte if the total field would otherwise be odd. Returns
// the updated buffer and the number of bytes written (2 + L + pad).
func PutString(buf []byte, offset int, s string) ([]byte, int) {
	l := len(s)
	pad := l & 1
	buf = ensure(buf, offset+2+l+pad)
	binary.BigEndian.PutUint16(buf[offset:], uint16(l))
	copy(buf[offset+2:], s)
	if pad == 1 {
		buf[offset+2+l] = 0
	}
	return buf, 2 + l + pad
}

// GetUint16 reads a uint16 at offset. If out of range, it returns 0 but
// still reports 2 bytes consumed, per the codec's bounds-checking
// contract: the caller is responsible for stopping once the declared
// frame length is exhausted.
func GetUint16(buf []byte, offset int) (uint16, int) {
	if offset+2 > len(buf) {
		return 0, 2
	}
	return binary.BigEndian.Uint16(buf[offset:]), 2
}

// GetUint32 reads a uint32 at offset, see GetUint16 for out-of-range behavior.
func GetUint32(buf []byte, offset int) (uint32, int) {
	if offset+4 > len(buf) {
		return 0, 4
	}
	return binary.BigEndian.Uint32(buf[offset:]), 4
}

// GetUint64 reads a uint64 at offset, see GetUint16 for out-of-range behavior.
func GetUint64(buf []byte, offset int) (uint64, int) {
	if offset+8 > len(buf) {
		return 0, 8
	}
	return binary.BigEndian.Uint64(buf[offset:]), 8
}

// GetString reads a length-prefixed, even-padded string at offset.
// Returns the decoded text and the number of bytes consumed including
// padding. A truncated length prefix yields an empty string and consumes
// 2 bytes; a truncated payload yields whatever prefix was available.
func GetString(buf []byte, offset int) (string, int) {
	if offset+2 > len(buf) {
		return "", 2
	}
	l := int(binary.BigEndian.Uint16(buf[offset:]))
	avail := len(buf) - offset - 2
	n := l
	if n > avail {
		n = avail
	}
	if n < 0 {
		n = 0
	}
	s := string(buf[offset+2 : offset+2+n])
	consumed := 2 + l
	if consumed&1 == 1 {
		consumed++
	}
	return s, consumed
}

// Checksum sums every 16-bit big-endian word of message, excluding its
// final 2 bytes (the checksum slot itself), modulo 2^16.
func Checksum(message []byte) uint16 {
	var sum uint16
	n := len(message) - 2
	for i := 0; i < n; i += 2 {
		word, _ := GetUint16(message, i)
		sum += word
	}
	return sum
}

// encodedSize returns the on-wire byte width of a single DataValue,
// counting a padded string in full: 2 + len + (len&1). The historical
// C++ implementation under-counted strings as 2 regardless of length;
// SPEC_FULL.md §9 requires this rewrite to compute the true size so the
// pre-allocated frame is always large enough.
func encodedSize(dv DataValue) int {
	switch dv.Type {
	case Float64, Int64, Uint64:
		return 8
	case String:
		s, _ := dv.Value.(string)
		l := len(s)
		return 2 + l + (l & 1)
	case Int32, Uint32:
		return 4
	case Int16, Uint16:
		return 2
	default: // Float32 and anything unrecognized
		return 4
	}
}

// DataListSize returns the total on-wire byte size of list.
func DataListSize(list DataList) int {
	size := 0
	for _, dv := range list {
		size += encodedSize(dv)
	}
	return size
}

// DataListToBody appends the wire encoding of list to buf starting at
// offset, in order, returning the updated buffer and the offset just
// past the last value written.
func DataListToBody(list DataList, buf []byte, offset int) ([]byte, int) {
	for _, dv := range list {
		switch dv.Type {
		case Float64:
			v, _ := dv.Value.(float64)
			buf = PutUint64(buf, offset, math.Float64bits(v))
			offset += 8
		case String:
			v, _ := dv.Value.(string)
			var n int
			buf, n = PutString(buf, offset, v)
			offset += n
		case Int16:
			v, _ := dv.Value.(int16)
			buf = PutUint16(buf, offset, uint16(v))
			offset += 2
		case Uint16:
			v, _ := dv.Value.(uint16)
			buf = PutUint16(buf, offset, v)
			offset += 2
		case Int32:
			v, _ := dv.Value.(int32)
			buf = PutUint32(buf, offset, uint32(v))
			offset += 4
		case Uint32:
			v, _ := dv.Value.(uint32)
			buf = PutUint32(buf, offset, v)
			offset += 4
		case Int64:
			v, _ := dv.Value.(int64)
			buf = PutUint64(buf, offset, uint64(v))
			offset += 8
		case Uint64:
			v, _ := dv.Value.(uint64)
			buf = PutUint64(buf, offset, v)
			offset += 8
		case Float32:
			fallthrough
		default:
			v, _ := dv.Value.(float32)
			buf = PutUint32(buf, offset, math.Float32bits(v))
			offset += 4
		}
	}
	return buf, offset
}

// BodyToDataList decodes body starting at offset into a fresh copy of
// list, using each entry's Type as the authoritative schema for how many
// bytes to consume. If body is truncated before a field completes,
// decoding halts and the remaining entries keep their zero value, per
// the silent-truncation contract in SPEC_FULL.md §4.1.
func BodyToDataList(body []byte, offset int, list DataList) DataList {
	out := make(DataList, len(list))
	copy(out, list)
	index := offset
	for i := range out {
		dv := &out[i]
		var size int
		switch dv.Type {
		case Float64, Int64, Uint64:
			size = 8
		case String:
			if index+2 > len(body) {
				size = -1
			} else {
				l, _ := GetUint16(body, index)
				size = 2 + int(l)
				if size&1 == 1 {
					size++
				}
			}
		case Int32, Uint32:
			size = 4
		case Int16, Uint16:
			size = 2
		default:
			size = 4
		}
		if size < 0 || index+size > len(body) {
			for j := i; j < len(out); j++ {
				out[j].Value = ZeroValue(out[j].Type)
			}
			break
		}

		switch dv.Type {
		case Float64:
			bits, n := GetUint64(body, index)
			dv.Value = math.Float64frombits(bits)
			index += n
		case String:
			s, n := GetString(body, index)
			dv.Value = s
			index += n
		case Int16:
			v, n := GetUint16(body, index)
			dv.Value = int16(v)
			index += n
		case Uint16:
			v, n := GetUint16(body, index)
			dv.Value = v
			index += n
		case Int32:
			v, n := GetUint32(body, index)
			dv.Value = int32(v)
			index += n
		case Uint32:
			v, n := GetUint32(body, index)
			dv.Value = v
			index += n
		case Int64:
			v, n := GetUint64(body, index)
			dv.Value = int64(v)
			index += n
		case Uint64:
			v, n := GetUint64(body, index)
			dv.Value = v
			index += n
		case Float32:
			fallthrough
		default:
			bits, n := GetUint32(body, index)
			dv.Value = math.Float32frombits(bits)
			index += n
		}
	}
	return out
}
