package asap3_test

import (
	"testing"

	"github.com/nasa-jpl/asap3/asap3"
	"github.com/nasa-jpl/asap3/wire"
)

func TestNewA3ParameterDefaults(t *testing.T) {
	p := asap3.NewA3Parameter("temp1")
	if !p.Exist {
		t.Fatal("Exist should default to true")
	}
	if p.ValueIndex != 0 {
		t.Fatalf("ValueIndex=%d, want 0", p.ValueIndex)
	}
	if p.NofDecimals != 2 {
		t.Fatalf("NofDecimals=%d, want 2", p.NofDecimals)
	}
	if p.Type != wire.Float32 {
		t.Fatalf("Type=%v, want FLOAT32", p.Type)
	}
}

func TestParameterClampRespectsLimits(t *testing.T) {
	p := asap3.NewA3Parameter("setpoint")
	p.Limits.Min = 0
	p.Limits.Max = 100
	if got := p.Clamp(150); got != 100 {
		t.Fatalf("Clamp(150)=%v, want 100", got)
	}
	if got := p.Clamp(-5); got != 0 {
		t.Fatalf("Clamp(-5)=%v, want 0", got)
	}
	if !p.InRange(50) || p.InRange(150) {
		t.Fatal("InRange behaved unexpectedly")
	}
}

func TestParameterDisplayRounding(t *testing.T) {
	p := asap3.NewA3Parameter("temp1")
	p.NofDecimals = 1
	got := p.Display(3.14159)
	if diff := got - 3.1; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("Display(3.14159)=%v, want ~3.1", got)
	}
}

func TestForceExistOverridesFalse(t *testing.T) {
	list := []asap3.A3Parameter{{Name: "a", Exist: false}}
	out := asap3.ForceExist(list)
	if !out[0].Exist {
		t.Fatal("ForceExist must set Exist=true")
	}
}

func TestIsSubscriptionInitializedChecksBoundsAndNames(t *testing.T) {
	params := []asap3.A3Parameter{
		{Name: "a", Exist: true, ValueIndex: 0},
		{Name: "b", Exist: true, ValueIndex: 1},
	}
	values := wire.DataList{
		{Name: "a", Type: wire.Float32, Value: float32(1)},
		{Name: "b", Type: wire.Float32, Value: float32(2)},
	}
	if !asap3.IsSubscriptionInitialized(params, values) {
		t.Fatal("expected subscription to be initialized")
	}

	stale := wire.DataList{values[0]} // missing index 1
	if asap3.IsSubscriptionInitialized(params, stale) {
		t.Fatal("expected out-of-bounds ValueIndex to fail initialization check")
	}

	renamed := wire.DataList{values[0], {Name: "different", Type: wire.Float32, Value: float32(2)}}
	if asap3.IsSubscriptionInitialized(params, renamed) {
		t.Fatal("expected name mismatch to fail initialization check")
	}
}
