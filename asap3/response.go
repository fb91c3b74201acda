package asap3

import (
	"github.com/nasa-jpl/asap3/wire"
)

// Response is the decoded counterpart of a Request: status plus a
// schema-driven DataList. Unlike Request it carries an
// invalidChecksum flag, since a Response is built directly off bytes
// that arrived over the wire and may be corrupt.
type Response struct {
	length          uint16
	cmd             CommandCode
	status          StatusCode
	data            wire.DataList
	sum             uint16
	invalidChecksum bool
}

// Cmd returns the command this response answers.
func (r Response) Cmd() CommandCode { return r.cmd }

// Status returns the response's status code.
func (r Response) Status() StatusCode { return r.status }

// DataList returns the response's decoded payload.
func (r Response) DataList() wire.DataList { return r.data }

// InvalidChecksum reports whether the frame's trailing checksum did not
// match the checksum computed over the received bytes.
func (r Response) InvalidChecksum() bool { return r.invalidChecksum }

// OK reports whether status is OK or SUCCESS, the two status values
// that carry a command-specific payload rather than an empty or
// error-shaped one.
func (r Response) OK() bool {
	return r.status == StatusOK || r.status == StatusSuccess
}

// GetData returns the i'th payload value, or a zero DataValue if i is out
// of bounds; use wire.As or wire.AsString to coerce it.
func (r Response) GetData(i int) wire.DataValue {
	if i < 0 || i >= len(r.data) {
		return wire.DataValue{}
	}
	return r.data[i]
}

// GetString returns the i'th payload value as a string.
func (r Response) GetString(i int) string {
	if i < 0 || i >= len(r.data) {
		return ""
	}
	return wire.AsString(r.data[i])
}

// errorSchema decodes the ERROR status's fixed payload: an error code
// and a human-readable text, independent of which command failed.
var errorSchema = wire.DataList{
	{Name: "ErrorCode", Type: wire.Uint16},
	{Name: "ErrorText", Type: wire.String},
}

var identifySchema = wire.DataList{
	{Name: "Version", Type: wire.Uint16},
	{Name: "Name", Type: wire.String},
}

var defineDescriptionFileAndBinaryFileSchema = wire.DataList{
	{Name: "LUN", Type: wire.Uint16},
	{Name: "Description", Type: wire.String},
	{Name: "Binary", Type: wire.String},
	{Name: "Calibration", Type: wire.String},
}

var selectDescriptionFileAndBinaryFileSchema = wire.DataList{
	{Name: "LUN", Type: wire.Uint16},
}

var getUserDefinedValueListHeaderSchema = wire.DataList{
	{Name: "Values", Type: wire.Uint16},
}

var queryAvailableServiceHeaderSchema = wire.DataList{
	{Name: "Services", Type: wire.Uint16},
}

var getServiceInformationSchema = wire.DataList{
	{Name: "Service Info", Type: wire.String},
}

var executeServiceSchema = wire.DataList{
	{Name: "Output", Type: wire.String},
}

var getCalpageInfoHeaderSchema = wire.DataList{
	{Name: "Pages", Type: wire.Uint16},
}

// calpageEntrySchema repeats once per page reported by
// getCalpageInfoHeaderSchema's "Pages" count.
var calpageEntrySchema = wire.DataList{
	{Name: "Index", Type: wire.Uint16},
	{Name: "Name", Type: wire.String},
	{Name: "Properties", Type: wire.Uint16},
}

// serviceEntrySchema repeats once per service reported by
// queryAvailableServiceHeaderSchema's "Services" count.
var serviceEntrySchema = wire.DataList{
	{Name: "Service", Type: wire.String},
}

// userDefinedValueEntrySchema repeats once per entry reported by
// getUserDefinedValueListHeaderSchema's "Values" count. The second field
// is the parameter's name, not its value: GET_USER_DEFINED_VALUE_LIST
// only ever enumerates what a LUN is called, matching the
// [lun:u16, name:string] pairs IClient::DefineUserDefinedData walks in
// the original client. The actual FLOAT32 values come later, from
// GET_USER_DEFINED_VALUE.
var userDefinedValueEntrySchema = wire.DataList{
	{Name: "LUN", Type: wire.Uint16},
	{Name: "Name", Type: wire.String},
}

// rawSchema is used for commands whose payload is opaque to the
// protocol layer and handed to the caller as raw bytes: GET_ONLINE_VALUE(_EV2)
// and GET_USER_DEFINED_VALUE return values whose type depends on the
// subscription's own parameter list, not on any fixed schema the
// protocol itself knows.
var rawSchema = wire.DataList{}

// schemaFor returns the fixed decode schema for cmd's OK/SUCCESS payload.
// Commands with dynamic, count-prefixed trailers (GET_CALPAGE_INFO,
// QUERY_AVAILABLE_SERVICE, GET_USER_DEFINED_VALUE_LIST) are decoded in
// two passes by NewResponse below; schemaFor returns only their fixed
// header here.
func schemaFor(cmd CommandCode) wire.DataList {
	switch cmd {
	case Identify:
		return identifySchema
	case DefineDescriptionFileAndBinaryFile:
		return defineDescriptionFileAndBinaryFileSchema
	case SelectDescriptionFileAndBinaryFile:
		return selectDescriptionFileAndBinaryFileSchema
	case GetUserDefinedValueList:
		return getUserDefinedValueListHeaderSchema
	case QueryAvailableService:
		return queryAvailableServiceHeaderSchema
	case GetServiceInformation:
		return getServiceInformationSchema
	case ExecuteService:
		return executeServiceSchema
	case GetCalpageInfo:
		return getCalpageInfoHeaderSchema
	case GetOnlineValue, GetOnlineValueEv2, GetUserDefinedValue:
		return rawSchema
	default:
		return rawSchema
	}
}

// NewResponse decodes a response frame's body, excluding the 2-byte
// length field already stripped by the connection reader: body is
// [cmd u16][status u16][payload][sum u16]. A frame shorter than 8 bytes
// (a body shorter than the 6 bytes of cmd + status + sum) cannot carry a
// valid frame and is rejected by the caller before this constructor is
// reached; NewResponse itself tolerates a short body by returning a
// Response with only length set and invalidChecksum true.
func NewResponse(length uint16, body []byte) Response {
	r := Response{length: length}
	if len(body) < 6 {
		r.invalidChecksum = true
		return r
	}

	cmd, _ := wire.GetUint16(body, 0)
	status, _ := wire.GetUint16(body, 2)
	r.cmd = CommandCode(cmd)
	r.status = StatusCode(status)

	sumOffset := len(body) - 2
	sum, _ := wire.GetUint16(body, sumOffset)
	r.sum = sum

	full := make([]byte, 2+len(body))
	full = wire.PutUint16(full, 0, length)
	copy(full[2:], body)
	r.invalidChecksum = wire.Checksum(full) != sum

	if !r.OK() {
		if r.status == StatusError {
			r.data = wire.BodyToDataList(body, 4, errorSchema)
		}
		return r
	}

	r.data = decodePayload(r.cmd, body, 4, sumOffset)
	return r
}

// decodePayload decodes the OK/SUCCESS payload occupying body[offset:end]
// according to cmd's schema, expanding the dynamic count-prefixed
// trailers that GET_CALPAGE_INFO, QUERY_AVAILABLE_SERVICE, and
// GET_USER_DEFINED_VALUE_LIST carry.
func decodePayload(cmd CommandCode, body []byte, offset, end int) wire.DataList {
	switch cmd {
	case GetCalpageInfo:
		return decodeRepeated(body, offset, end, getCalpageInfoHeaderSchema, calpageEntrySchema)
	case QueryAvailableService:
		return decodeRepeated(body, offset, end, queryAvailableServiceHeaderSchema, serviceEntrySchema)
	case GetUserDefinedValueList:
		return decodeRepeated(body, offset, end, getUserDefinedValueListHeaderSchema, userDefinedValueEntrySchema)
	case GetOnlineValue, GetOnlineValueEv2, GetUserDefinedValue:
		// Opaque to the protocol layer: handed back as a single raw-bytes
		// DataValue for the client's subscription cache to interpret.
		if offset > end || offset > len(body) {
			return wire.DataList{}
		}
		stop := end
		if stop > len(body) {
			stop = len(body)
		}
		raw := make([]byte, stop-offset)
		copy(raw, body[offset:stop])
		return wire.DataList{{Name: "Raw", Type: wire.NoType, Value: raw}}
	default:
		schema := schemaFor(cmd)
		if len(schema) == 0 {
			return wire.DataList{}
		}
		return wire.BodyToDataList(body, offset, schema)
	}
}

// decodeRepeated decodes header (a single count field) followed by
// count repetitions of entry, concatenating the header with every
// entry's fields into one flat DataList in encounter order.
func decodeRepeated(body []byte, offset, end int, header, entry wire.DataList) wire.DataList {
	decodedHeader := wire.BodyToDataList(body, offset, header)
	out := append(wire.DataList{}, decodedHeader...)
	if len(decodedHeader) == 0 {
		return out
	}
	count := int(wire.As[uint16](decodedHeader[0]))
	pos := offset + wire.DataListSize(header)
	for i := 0; i < count; i++ {
		if pos >= end {
			break
		}
		decodedEntry := wire.BodyToDataList(body, pos, entry)
		out = append(out, decodedEntry...)
		pos += wire.DataListSize(decodedEntry)
	}
	return out
}
