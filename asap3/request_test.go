package asap3_test

import (
	"testing"

	"github.com/nasa-jpl/asap3/asap3"
	"github.com/nasa-jpl/asap3/wire"
)

func TestInitRequestBodyMatchesS2(t *testing.T) {
	req := asap3.NewRequest(asap3.Init, nil)
	body := req.CreateBody()
	if len(body) != 8 {
		t.Fatalf("got %d bytes, want 8 (length+cmd+sum)", len(body))
	}
	length, _ := wire.GetUint16(body, 0)
	cmd, _ := wire.GetUint16(body, 2)
	sum, _ := wire.GetUint16(body, 6)
	if length != 8 {
		t.Fatalf("length=%d, want 8", length)
	}
	if cmd != uint16(asap3.Init) {
		t.Fatalf("cmd=%#x, want INIT", cmd)
	}
	if sum != 8+uint16(asap3.Init) {
		t.Fatalf("checksum=%d, want %d", sum, 8+uint16(asap3.Init))
	}
}

func TestGetDataOutOfBoundsReturnsZero(t *testing.T) {
	req := asap3.NewRequest(asap3.SetParameter, wire.DataList{
		{Name: "LUN", Type: wire.Uint16, Value: uint16(3)},
	})
	if got := asap3.GetData[uint16](req, 5); got != 0 {
		t.Fatalf("out-of-bounds GetData=%d, want 0", got)
	}
	if got := req.GetString(5); got != "" {
		t.Fatalf("out-of-bounds GetString=%q, want empty", got)
	}
}

func TestGetDataCoercesNumericTypes(t *testing.T) {
	req := asap3.NewRequest(asap3.SetParameter, wire.DataList{
		{Name: "Value", Type: wire.Float32, Value: float32(3.5)},
	})
	if got := asap3.GetData[float64](req, 0); got != 3.5 {
		t.Fatalf("coerced value=%v, want 3.5", got)
	}
}

func TestCreateBodyIncludesFullPayload(t *testing.T) {
	req := asap3.NewRequest(asap3.Identify, wire.DataList{
		{Name: "Version", Type: wire.Uint16, Value: uint16(0x0300)},
		{Name: "Name", Type: wire.String, Value: "tester"},
	})
	body := req.CreateBody()
	length, _ := wire.GetUint16(body, 0)
	if int(length) != len(body) {
		t.Fatalf("declared length %d does not match frame size %d", length, len(body))
	}
}
