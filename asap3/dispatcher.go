package asap3

import (
	"context"
	"time"
)

// DispatchTick is the unit DispatchTimeout is counted in; the dispatcher
// itself does not poll. The original C++ MessageThread polls
// response_handled once per second for up to 600 ticks (10 minutes);
// Go's select lets the same budget be expressed as a single timer
// instead of a polling loop.
const DispatchTick = time.Second

// DispatchTimeout is the total time the dispatcher waits for a
// Response before giving up on a Telegram. SPEC_FULL.md §9 changes the
// original's silent give-up into an explicit failure: on expiry the
// Telegram completes with ok=false and a nil Response, and a
// dispatchTimeoutError is logged, rather than the original simply
// falling out of its wait loop with no callback at all.
const DispatchTimeout = 600 * DispatchTick

// dispatchTimeoutError is reported to the Listener (at log level 0) when
// a Telegram's Response never arrives within DispatchTimeout.
type dispatchTimeoutError struct{ cmd CommandCode }

func (e dispatchTimeoutError) Error() string {
	return "asap3: no response to " + e.cmd.String() + " within dispatch timeout"
}

// Dispatcher enforces the protocol's at-most-one-request-in-flight
// rule: it pulls the next Telegram off its queue, writes the request,
// and blocks until a matching Response arrives, is rejected, or times
// out, before pulling the next one. It owns no socket directly; it
// only ever writes through Writes and reads through Frames, the same
// channels a Connection is wired to.
type Dispatcher struct {
	Queue  *TelegramQueue
	Writes chan<- []byte
	Frames <-chan Frame

	// Listener receives status-driven log lines mirroring
	// ListenResponse's log-level switch (SPEC_FULL.md §4.9).
	Listener Listener

	// OnTelegram is invoked for every Telegram completed by a matching
	// Response, OK or not, before the dispatcher moves on to the next one;
	// completions on timeout, cancellation or a failed send do not invoke
	// it. Client uses this
	// to react to IDENTIFY, QUERY_AVAILABLE_SERVICE, and
	// GET_SERVICE_INFORMATION the way HandleTelegram does in the
	// original.
	OnTelegram func(t *Telegram)

	// Restart is signaled (non-blocking) when a NOT_PROCESSED status
	// arrives, telling the Connection sharing this channel to close its
	// socket and re-enter RETRY_WAIT once the current frame has been
	// handled, mirroring HandleResponse's restart_ flag in the original
	// client. May be nil, in which case NOT_PROCESSED is still abandoned
	// without completion but no reconnect is requested.
	Restart chan<- struct{}
}

// Run services the queue until ctx is canceled. Reconnects are
// transparent to it: a Connection drop simply stalls Frames, and the
// in-flight Telegram eventually times out via DispatchTimeout.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		t, ok := d.Queue.Get()
		if !ok {
			return
		}
		if ctx.Err() != nil {
			t.Complete(false, nil)
			return
		}
		d.handle(ctx, t)
	}
}

// handle writes t's request and waits for its resolution, retransmitting
// on REPEAT_CMD and giving up after DispatchTimeout, mirroring
// HandleRequest/HandleResponse in the original client.
func (d *Dispatcher) handle(ctx context.Context, t *Telegram) {
	body := t.Request.CreateBody()

	deadline := time.NewTimer(DispatchTimeout)
	defer deadline.Stop()

	d.logSummary(t.Request.Cmd(), "TX %s", t.Request.Cmd())
	if !d.send(ctx, body) {
		t.Complete(false, nil)
		return
	}

	for {
		select {
		case <-ctx.Done():
			t.Complete(false, nil)
			return

		case <-deadline.C:
			t.Complete(false, nil)
			if d.Listener != nil {
				d.Listener.Outf(0, "%s", dispatchTimeoutError{cmd: t.Request.Cmd()}.Error())
			}
			return

		case frame, ok := <-d.Frames:
			if !ok {
				t.Complete(false, nil)
				return
			}
			resp := NewResponse(frame.Length, frame.Body)
			if !t.Matches(resp) {
				// Stray or misordered frame; keep waiting for ours.
				continue
			}

			switch resp.Status() {
			case StatusAck:
				// Prolongs the wait without completing; the server is
				// still working the request.
				continue

			case StatusRepeatCmd:
				if !d.send(ctx, body) {
					t.Complete(false, nil)
					return
				}
				continue

			case StatusNotProcessed:
				// HandleResponse only sets restart_/response_handled_
				// for this status in the original client; it never
				// calls HandleTelegram, so the telegram is abandoned
				// here without an on_complete callback. Signal Restart
				// so the connection reconnects once this dispatch ends.
				if d.Restart != nil {
					select {
					case d.Restart <- struct{}{}:
					default:
					}
				}
				return

			default:
				ok := resp.OK()
				d.logSummary(resp.Cmd(), "RX %s %s", resp.Cmd(), resp.Status())
				t.Complete(ok, &resp)
				if d.OnTelegram != nil {
					d.OnTelegram(t)
				}
				return
			}
		}
	}
}

// logSummary prints a plain-text request/response summary, reproducing
// ListenRequest/ListenResponse's log-level switch: levels 0-2 print a
// one-line summary (with the GET_ONLINE_VALUE carve-out applied by
// shouldLogCmd), level 3 is left to the hex dumps Connection already
// emits via Transmit/Receive.
func (d *Dispatcher) logSummary(cmd CommandCode, format string, args ...any) {
	if d.Listener == nil {
		return
	}
	level := d.Listener.LogLevel()
	if level >= 3 || !shouldLogCmd(level, cmd) {
		return
	}
	d.Listener.Outf(level, format, args...)
}

func (d *Dispatcher) send(ctx context.Context, body []byte) bool {
	select {
	case d.Writes <- body:
		return true
	case <-ctx.Done():
		return false
	}
}
