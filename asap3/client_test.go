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

// runFakeAsap3Server accepts exactly one connection and answers every
// request it receives with an OK/SUCCESS response for the same command,
// standing in for a real ASAP3 server across the handshake.
func runFakeAsap3Server(t *testing.T, ln net.Listener) {
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
			cmd, _ := wire.GetUint16(rest, 0)

			respLength, respBody := buildResponseBody(asap3.CommandCode(cmd), asap3.StatusSuccess, nil)
			if _, err := conn.Write(wire.PutUint16(nil, 0, respLength)); err != nil {
				return
			}
			if _, err := conn.Write(respBody); err != nil {
				return
			}
		}
	}()
}

func TestClientStartPerformsHandshake(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	runFakeAsap3Server(t, ln)

	addr := ln.Addr().(*net.TCPAddr)
	client := asap3.NewClient("127.0.0.1", uint16(addr.Port))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	client.Stop()
}
