package asap3

import "github.com/nasa-jpl/asap3/wire"

// Request pairs a CommandCode with its payload. It is immutable after
// construction and has no status field: request frames are
// [length][cmd][payload][sum].
type Request struct {
	cmd  CommandCode
	data wire.DataList
}

// NewRequest builds a Request. data may be nil for commands with no
// payload (INIT, EXIT, ...).
func NewRequest(cmd CommandCode, data wire.DataList) Request {
	return Request{cmd: cmd, data: data}
}

// Cmd returns the request's command.
func (r Request) Cmd() CommandCode { return r.cmd }

// DataList returns the request's payload.
func (r Request) DataList() wire.DataList { return r.data }

// GetData coerces the i'th payload value to T via a numeric cast.
// Out-of-bounds or non-numeric values yield T's zero value; see
// wire.As for the coercion rules. Use GetString for STRING fields.
func GetData[T wire.Numeric](r Request, i int) T {
	if i < 0 || i >= len(r.data) {
		return T(0)
	}
	return wire.As[T](r.data[i])
}

// GetString returns the i'th payload value as a string, or "" if it is
// out of bounds or not a STRING field.
func (r Request) GetString(i int) string {
	if i < 0 || i >= len(r.data) {
		return ""
	}
	return wire.AsString(r.data[i])
}

// CreateBody serializes the request into a wire frame:
// [length u16][cmd u16][payload][sum u16]. length is the total frame size
// in bytes; sum is the checksum of the whole frame excluding its own slot.
func (r Request) CreateBody() []byte {
	payloadSize := wire.DataListSize(r.data)
	length := 2 + 2 + payloadSize + 2 // length + cmd + payload + sum
	buf := make([]byte, length)

	buf = wire.PutUint16(buf, 0, uint16(length))
	buf = wire.PutUint16(buf, 2, uint16(r.cmd))
	buf, offset := wire.DataListToBody(r.data, buf, 4)

	sum := wire.Checksum(buf)
	buf = wire.PutUint16(buf, offset, sum)
	return buf
}

// DecodeRequest parses a previously-encoded Request body back into a
// Request, used by round-trip property tests (SPEC_FULL.md §8, law 3).
// schema provides the per-position DataTypes to decode the payload with,
// since (unlike a Response) a bare request frame carries no status to
// key a schema off of.
func DecodeRequest(body []byte, schema wire.DataList) Request {
	cmd, _ := wire.GetUint16(body, 2)
	data := wire.BodyToDataList(body, 4, schema)
	return Request{cmd: CommandCode(cmd), data: data}
}
