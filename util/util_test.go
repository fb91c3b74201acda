package util_test

import (
	"testing"

	"github.com/nasa-jpl/asap3/util"
)

func TestClampHigh(t *testing.T) {
	var (
		low   = 0.
		high  = 10.
		input = 20.
	)
	clamped := util.Clamp(input, low, high)
	if clamped != high {
		t.Errorf("expected out of range value %f to be clipped to %f, got %f", input, high, clamped)
	}
}

func TestClampLow(t *testing.T) {
	var (
		low   = 0.
		high  = 10.
		input = -1.
	)
	clamped := util.Clamp(input, low, high)
	if clamped != low {
		t.Errorf("expected out of range value %f to be clipped to %f, got %f", input, low, clamped)
	}
}

func TestLimiterClampAndCheck(t *testing.T) {
	l := util.Limiter{Min: 0, Max: 10}
	if got := l.Clamp(20); got != 10 {
		t.Errorf("Clamp(20)=%v, want 10", got)
	}
	if got := l.Clamp(-5); got != 0 {
		t.Errorf("Clamp(-5)=%v, want 0", got)
	}
	if !l.Check(5) || l.Check(11) || l.Check(-1) {
		t.Error("Check behaved unexpectedly")
	}
}
