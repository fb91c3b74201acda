package asap3_test

import (
	"testing"
	"time"

	"github.com/nasa-jpl/asap3/asap3"
)

func TestTelegramQueueFIFO(t *testing.T) {
	q := asap3.NewTelegramQueue()
	first := asap3.NewTelegram(asap3.NewRequest(asap3.Init, nil), nil)
	second := asap3.NewTelegram(asap3.NewRequest(asap3.Exit, nil), nil)
	q.Put(first)
	q.Put(second)

	got, ok := q.Get()
	if !ok || got != first {
		t.Fatal("expected first telegram out first")
	}
	got, ok = q.Get()
	if !ok || got != second {
		t.Fatal("expected second telegram out second")
	}
}

func TestTelegramQueueGetBlocksUntilPut(t *testing.T) {
	q := asap3.NewTelegramQueue()
	done := make(chan *asap3.Telegram, 1)
	go func() {
		t, _ := q.Get()
		done <- t
	}()

	select {
	case <-done:
		t.Fatal("Get returned before any Put")
	case <-time.After(20 * time.Millisecond):
	}

	tel := asap3.NewTelegram(asap3.NewRequest(asap3.Init, nil), nil)
	q.Put(tel)

	select {
	case got := <-done:
		if got != tel {
			t.Fatal("got unexpected telegram")
		}
	case <-time.After(time.Second):
		t.Fatal("Get never returned after Put")
	}
}

func TestTelegramQueueStopUnblocksGet(t *testing.T) {
	q := asap3.NewTelegramQueue()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Get()
		done <- ok
	}()
	q.Stop()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected Get to report false after Stop on an empty queue")
		}
	case <-time.After(time.Second):
		t.Fatal("Get never unblocked after Stop")
	}
}
