package asap3

import "sync"

// TelegramQueue is a thread-safe, unbounded FIFO of pending Telegrams.
// The dispatcher goroutine blocks on Get until a Telegram is enqueued
// or the queue is stopped; any other goroutine may Put concurrently.
type TelegramQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []*Telegram
	stopped bool
}

// NewTelegramQueue returns an empty, running queue.
func NewTelegramQueue() *TelegramQueue {
	q := &TelegramQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put appends t to the queue and wakes one blocked Get, if any. Put on
// a stopped queue is a no-op: nothing will ever drain it again.
func (q *TelegramQueue) Put(t *Telegram) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.items = append(q.items, t)
	q.cond.Signal()
}

// Get blocks until a Telegram is available or the queue is stopped. It
// returns false once the queue is stopped and drained.
func (q *TelegramQueue) Get() (*Telegram, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.stopped {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}

// Len reports the number of Telegrams currently waiting.
func (q *TelegramQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Stop marks the queue stopped and wakes every blocked Get; subsequent
// Get calls still drain whatever was already queued before returning
// false, matching StopMessageThread's drain-then-stop behavior.
func (q *TelegramQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	q.cond.Broadcast()
}

// Clear discards every pending Telegram without completing them. Nothing
// in this package calls it; a connection drop leaves the queue as it is.
func (q *TelegramQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}
