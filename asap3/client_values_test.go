package asap3_test

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/nasa-jpl/asap3/asap3"
	"github.com/nasa-jpl/asap3/wire"
)

// runScriptedAsap3Server answers the handshake (INIT/IDENTIFY/
// QUERY_AVAILABLE_SERVICE) with empty SUCCESS responses and defers to
// responseFor for everything else, letting a test script specific
// payloads for specific commands.
func runScriptedAsap3Server(t *testing.T, ln net.Listener, responseFor func(cmd asap3.CommandCode) wire.DataList) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			lengthBuf := make([]byte, 2)
			if _, err := io.ReadFull(conn, lengthBuf); err != nil {
				return
			}
			length, _ := wire.GetUint16(lengthBuf, 0)
			rest := make([]byte, int(length)-2)
			if _, err := io.ReadFull(conn, rest); err != nil {
				return
			}
			cmdCode, _ := wire.GetUint16(rest, 0)
			cmd := asap3.CommandCode(cmdCode)

			payload := responseFor(cmd)
			respLength, respBody := buildResponseBody(cmd, asap3.StatusSuccess, payload)
			if _, err := conn.Write(wire.PutUint16(nil, 0, respLength)); err != nil {
				return
			}
			if _, err := conn.Write(respBody); err != nil {
				return
			}
		}
	}()
}

// TestClientWiresOnlineAndUserDefinedCaches exercises SetOnlineData,
// DefineUserDefinedData, and SetUserDefinedData end to end through
// Client.Send, then checks IsSubscriptionInitialized against the result,
// reproducing the subscription flow spec.md §4.7 describes.
func TestClientWiresOnlineAndUserDefinedCaches(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	runScriptedAsap3Server(t, ln, func(cmd asap3.CommandCode) wire.DataList {
		switch cmd {
		case asap3.GetOnlineValue:
			// Raw bytes for two FLOAT32 online values, matching the
			// two non-set-point parameters registered below.
			return wire.DataList{
				{Type: wire.Float32, Value: float32(12.5)},
				{Type: wire.Float32, Value: float32(99)},
			}
		case asap3.GetUserDefinedValueList:
			// [Values:1] + one [LUN:5, Name:"foo"] pair.
			return wire.DataList{
				{Type: wire.Uint16, Value: uint16(1)},
				{Type: wire.Uint16, Value: uint16(5)},
				{Type: wire.String, Value: "foo"},
			}
		case asap3.GetUserDefinedValue:
			// Raw bytes matching the schema DefineUserDefinedData just
			// installed: [Values:u16][foo:FLOAT32].
			return wire.DataList{
				{Type: wire.Uint16, Value: uint16(1)},
				{Type: wire.Float32, Value: float32(7.5)},
			}
		default:
			return nil
		}
	})

	addr := ln.Addr().(*net.TCPAddr)
	client := asap3.NewClient("127.0.0.1", uint16(addr.Port))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer client.Stop()

	client.ParameterList([]asap3.A3Parameter{
		{Name: "a", ValueIndex: 0, Type: wire.Float32},
		{Name: "b", ValueIndex: 1, Type: wire.Float32},
	})

	if client.IsSubscriptionInitialized() {
		t.Fatal("subscription should not be initialized before any online value arrives")
	}

	if _, err := client.SendSync(ctx, asap3.NewRequest(asap3.GetOnlineValue, nil)); err != nil {
		t.Fatalf("GET_ONLINE_VALUE failed: %v", err)
	}

	online := client.OnlineValues()
	if len(online) != 2 {
		t.Fatalf("got %d online values, want 2", len(online))
	}
	if online[0].Name != "a" || wire.As[float32](online[0]) != 12.5 {
		t.Fatalf("online[0]=%+v, want a=12.5", online[0])
	}
	if online[1].Name != "b" || wire.As[float32](online[1]) != 99 {
		t.Fatalf("online[1]=%+v, want b=99", online[1])
	}

	if !client.IsSubscriptionInitialized() {
		t.Fatal("subscription should be initialized once online_values matches the parameter list")
	}

	if _, err := client.SendSync(ctx, asap3.NewRequest(asap3.GetUserDefinedValueList, nil)); err != nil {
		t.Fatalf("GET_USER_DEFINED_VALUE_LIST failed: %v", err)
	}

	defined := client.UserDefinedValues()
	if len(defined) != 2 {
		t.Fatalf("got %d user-defined entries, want 2 (Values + foo)", len(defined))
	}
	if defined[0].Name != "Values" || wire.As[uint16](defined[0]) != 1 {
		t.Fatalf("defined[0]=%+v, want Values=1", defined[0])
	}
	if defined[1].Name != "foo" || defined[1].Type != wire.Float32 {
		t.Fatalf("defined[1]=%+v, want foo/FLOAT32 placeholder", defined[1])
	}
	if v := wire.As[float32](defined[1]); v == v {
		t.Fatalf("foo placeholder=%v, want NaN sentinel", v)
	}

	if _, err := client.SendSync(ctx, asap3.NewRequest(asap3.GetUserDefinedValue, nil)); err != nil {
		t.Fatalf("GET_USER_DEFINED_VALUE failed: %v", err)
	}

	filled := client.UserDefinedValues()
	if len(filled) != 2 || filled[1].Name != "foo" || wire.As[float32](filled[1]) != 7.5 {
		t.Fatalf("filled=%+v, want foo=7.5", filled)
	}
}
