package asap3

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/nasa-jpl/asap3/comm"
	"github.com/nasa-jpl/asap3/wire"
)

// RetryWait is how long Connection waits after a resolve, dial, or I/O
// error before attempting to reconnect. The original C++ client uses a
// fixed 5s DoRetryWait; Go's context/goroutine model replaces its
// callback chain (DoLookup -> DoConnect -> DoReadLength -> DoReadBody)
// with a single loop, but the retry cadence is unchanged.
const RetryWait = 5 * time.Second

// BodyTimeout bounds how long Connection waits for a frame's body once
// its length prefix has been read. A server that announces a length
// and then stalls mid-body is treated the same as a dropped socket.
const BodyTimeout = 10 * time.Second

// errRestartRequested is returned by pump when Connection.Restart fires,
// forcing Run's caller back into RETRY_WAIT the same way any other I/O
// error does.
var errRestartRequested = errors.New("asap3: restart requested after NOT_PROCESSED")

// Frame is a decoded wire frame handed from Connection to the
// dispatcher: the raw length and the body bytes that follow it
// (cmd, status/none, payload, checksum), not yet interpreted as a
// Response since only the dispatcher knows which Telegram it answers.
type Frame struct {
	Length uint16
	Body   []byte
}

// Connection owns the single long-lived TCP socket an ASAP3 client
// keeps open to its server. It runs a resolve/connect/read loop on the
// calling goroutine and a serialized writer on a second goroutine,
// communicating outward over Frames and inward over Writes.
type Connection struct {
	Host string
	Port uint16

	// Dial creates the transport on each (re)connect attempt. Defaults
	// to comm.BackingOffTCPConnMaker if nil.
	Dial comm.CreationFunc

	// Frames receives each decoded frame read off the wire, in order.
	Frames chan<- Frame
	// Writes carries pre-serialized request frames out to the socket.
	Writes <-chan []byte

	// Listener receives raw transmit/receive hex dumps when non-nil,
	// mirroring the original ListenRequest/ListenResponse log-level 3
	// behavior (SPEC_FULL.md §4.9).
	Listener Listener

	// Connected is sent a bool (non-blocking) each time the connection
	// transitions up or down. Client does not set it, and Dispatcher has
	// no input for it. May be nil.
	Connected chan<- bool

	// Restart is read by pump between frames; a signal forces the
	// socket closed and RETRY_WAIT entered, mirroring restart_ in the
	// original client's HandleResponse (set on STATUS_NOT_PROCESSED).
	// May be nil.
	Restart <-chan struct{}

	// RetryWait and BodyTimeout override the package defaults when
	// non-zero, letting tests exercise the retry/watchdog paths
	// without waiting out the production cadence.
	RetryWait   time.Duration
	BodyTimeout time.Duration
}

func (c *Connection) retryWait() time.Duration {
	if c.RetryWait != 0 {
		return c.RetryWait
	}
	return RetryWait
}

func (c *Connection) bodyTimeout() time.Duration {
	if c.BodyTimeout != 0 {
		return c.BodyTimeout
	}
	return BodyTimeout
}

// Run resolves Host:Port, connects, and pumps frames until ctx is
// canceled, reconnecting after RetryWait on any error. It returns only
// when ctx is done.
func (c *Connection) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		addr, err := comm.ResolveTCP(c.Host, c.Port)
		if err != nil {
			if !c.wait(ctx, c.retryWait()) {
				return ctx.Err()
			}
			continue
		}

		dial := c.Dial
		if dial == nil {
			dial = comm.BackingOffTCPConnMaker(addr.String(), 5*time.Second)
		}

		conn, err := dial()
		if err != nil {
			if !c.wait(ctx, c.retryWait()) {
				return ctx.Err()
			}
			continue
		}

		c.setConnected(true)
		err = c.pump(ctx, conn)
		conn.Close()
		c.setConnected(false)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !c.wait(ctx, c.retryWait()) {
			return ctx.Err()
		}
	}
}

func (c *Connection) setConnected(up bool) {
	if c.Connected == nil {
		return
	}
	select {
	case c.Connected <- up:
	default:
	}
}

func (c *Connection) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// pump runs the read loop over conn and a writer goroutine feeding it
// from c.Writes, until ctx is canceled or an I/O error occurs on
// either side.
func (c *Connection) pump(ctx context.Context, conn io.ReadWriteCloser) error {
	pumpCtx, cancel := context.WithCancel(ctx)

	writerErr := make(chan error, 1)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writerErr <- c.writeLoop(pumpCtx, conn)
	}()
	defer func() {
		cancel()
		<-writerDone
	}()

	for {
		lengthBuf := make([]byte, 2)
		lengthErr := make(chan error, 1)
		go func() {
			_, err := io.ReadFull(conn, lengthBuf)
			lengthErr <- err
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case werr := <-writerErr:
			return werr
		case <-c.Restart:
			return errRestartRequested
		case err := <-lengthErr:
			if err != nil {
				return errors.Wrap(err, "read frame length")
			}
		}

		length, _ := wire.GetUint16(lengthBuf, 0)
		if length < 8 {
			return errors.Errorf("frame announced implausible length %d", length)
		}

		body := make([]byte, length-2)
		if len(body) > 0 {
			if err := c.readBodyWithTimeout(ctx, conn, body); err != nil {
				return err
			}
		}

		if c.Listener != nil {
			full := append(append([]byte{}, lengthBuf...), body...)
			c.Listener.Receive(time.Now(), "", full)
		}

		frame := Frame{Length: length, Body: body}
		select {
		case c.Frames <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// readBodyWithTimeout reads exactly len(body) bytes, failing if
// BodyTimeout elapses first. conn only supports a deadline when it is
// a net.Conn; Connection is built against io.ReadWriteCloser so tests
// can substitute an in-memory pipe, so the deadline is enforced with a
// goroutine+context instead of conn.SetReadDeadline.
func (c *Connection) readBodyWithTimeout(ctx context.Context, conn io.Reader, body []byte) error {
	readCtx, cancel := context.WithTimeout(ctx, c.bodyTimeout())
	defer cancel()

	result := make(chan error, 1)
	go func() {
		_, err := io.ReadFull(conn, body)
		result <- err
	}()

	select {
	case err := <-result:
		if err != nil {
			return errors.Wrap(err, "read frame body")
		}
		return nil
	case <-readCtx.Done():
		return errors.Wrap(readCtx.Err(), "frame body watchdog")
	}
}

func (c *Connection) writeLoop(ctx context.Context, conn io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-c.Writes:
			if !ok {
				return nil
			}
			if c.Listener != nil {
				c.Listener.Transmit(time.Now(), "", frame)
			}
			if _, err := conn.Write(frame); err != nil {
				return errors.Wrap(err, "write frame")
			}
		}
	}
}
