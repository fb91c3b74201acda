package asap3_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/nasa-jpl/asap3/asap3"
	"github.com/nasa-jpl/asap3/wire"
)

// fakeServer answers every request that arrives on writes with an OK
// response for the same command and records every request body seen,
// standing in for a live Connection in dispatcher-level tests.
func fakeServer(writes <-chan []byte, frames chan<- asap3.Frame, done <-chan struct{}) *[][]byte {
	seen := &[][]byte{}
	go func() {
		for {
			select {
			case <-done:
				return
			case body, ok := <-writes:
				if !ok {
					return
				}
				*seen = append(*seen, body)
				cmd, _ := wire.GetUint16(body, 2)
				length, respBody := buildResponseBody(asap3.CommandCode(cmd), asap3.StatusSuccess, nil)
				select {
				case frames <- asap3.Frame{Length: length, Body: respBody}:
				case <-done:
					return
				}
			}
		}
	}()
	return seen
}

func TestStartSubscriptionBatchesExactlyLikeS4(t *testing.T) {
	client := asap3.NewClient("127.0.0.1", 0)
	done := make(chan struct{})
	defer close(done)
	seen := fakeServer(client.Writes(), client.Frames(), done)

	dispatcher := &asap3.Dispatcher{Queue: client.Queue(), Writes: client.Writes(), Frames: client.Frames()}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)

	params := make([]asap3.A3Parameter, 101)
	for i := range params {
		params[i] = asap3.NewA3Parameter(fmt.Sprintf("p%d", i+1))
	}
	client.ParameterList(params)

	if err := client.StartSubscription(context.Background(), 100); err != nil {
		t.Fatalf("StartSubscription failed: %v", err)
	}

	if len(*seen) != 4 {
		t.Fatalf("got %d telegrams, want 4 (1 reset + 3 batches)", len(*seen))
	}

	header := wire.DataList{
		{Name: "LUN", Type: wire.Uint16},
		{Name: "Sample Rate", Type: wire.Uint16},
		{Name: "Measurements", Type: wire.Uint16},
	}
	want := []uint16{0, 50, 50, 1}
	for i, body := range *seen {
		data := wire.BodyToDataList(body, 4, header)
		if got := wire.As[uint16](data[2]); got != want[i] {
			t.Fatalf("batch %d Measurements=%d, want %d", i, got, want[i])
		}
	}

	lastBody := (*seen)[3]
	lastSchema := append(append(wire.DataList{}, header...), wire.DataValue{Name: "Name 101", Type: wire.String})
	data := wire.BodyToDataList(lastBody, 4, lastSchema)
	if got := wire.AsString(data[3]); got != "p101" {
		t.Fatalf("last batch's sole name=%q, want p101", got)
	}
}

func TestStartSubscriptionRejectsEmptyParameterList(t *testing.T) {
	client := asap3.NewClient("127.0.0.1", 0)
	if err := client.StartSubscription(context.Background(), 100); err == nil {
		t.Fatal("expected error for empty parameter list")
	}
}
