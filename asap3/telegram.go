package asap3

// OnComplete is invoked at most once, when a Telegram's outcome is known:
// ok is true if a matching response with status OK or SUCCESS arrived,
// false on an ERROR or other non-OK status, a failed send, cancellation,
// or dispatch timeout. A Telegram abandoned on NOT_PROCESSED never
// invokes it, and frames for another command are skipped, not reported.
type OnComplete func(ok bool, t *Telegram)

// Telegram pairs a Request with the Response that eventually answers it.
// A Telegram is owned by the dispatcher from the moment it is enqueued
// until its completion callback fires; nothing else mutates it
// concurrently with the dispatcher, so access is unsynchronized by
// design rather than mutex-guarded.
type Telegram struct {
	Request  Request
	Response *Response
	done     OnComplete
	handled  bool
}

// NewTelegram wraps req with an optional completion callback. done may
// be nil for fire-and-forget sends (EXIT, REPEAT_REQUEST).
func NewTelegram(req Request, done OnComplete) *Telegram {
	return &Telegram{Request: req, done: done}
}

// Complete installs resp as the Telegram's response, if one has not
// already been installed, and fires the completion callback. Per
// SPEC_FULL.md §4.4 a Telegram may be completed at most once; later
// calls are no-ops so a REPEAT_CMD retransmit cannot double-fire the
// original caller's callback.
func (t *Telegram) Complete(ok bool, resp *Response) {
	if t.handled {
		return
	}
	t.handled = true
	t.Response = resp
	if t.done != nil {
		t.done(ok, t)
	}
}

// Handled reports whether Complete has already run.
func (t *Telegram) Handled() bool { return t.handled }

// Matches reports whether resp answers t's request: the dispatcher
// installs a response on a Telegram only if their commands agree,
// discarding anything else as a stray or misordered frame.
func (t *Telegram) Matches(resp Response) bool {
	return resp.Cmd() == t.Request.Cmd()
}
