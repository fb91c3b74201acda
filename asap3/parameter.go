package asap3

import (
	"github.com/nasa-jpl/asap3/mathx"
	"github.com/nasa-jpl/asap3/util"
	"github.com/nasa-jpl/asap3/wire"
)

// A3Parameter describes a single online or set-point value a Client can
// subscribe to or write, mirroring the field set of the original
// a3parameter.h exactly. Limits is a util.Limiter rather than a bare
// min/max pair so the same clamp/check helper the teacher's device
// drivers use for setpoint limiting applies here too.
type A3Parameter struct {
	Name        string
	Unit        string
	Description string
	Device      string
	Signal      string
	Identity    string
	DisplayName string

	// SetPoint marks a writable (SET_PARAMETER) value as opposed to a
	// read-only online value; defaults to false.
	SetPoint bool

	// Exist is forced true by ParameterList's setter, matching the
	// original client's ParameterList(parameter_list) behavior of
	// overriding every element's exist flag on assignment.
	Exist bool

	// ValueIndex is this parameter's position within the server's
	// online or output value list, used by IsSubscriptionInitialized
	// to validate a cached subscription against a fresh parameter list.
	ValueIndex int

	// NofDecimals controls Display's rounding; defaults to 2.
	NofDecimals uint8

	// CycleTime is the requested sample period in milliseconds;
	// 0 means "as fast as the server allows."
	CycleTime int

	Limits util.Limiter

	LUN  uint16
	Type wire.DataType
}

// NewA3Parameter returns a parameter with the original's documented
// defaults: Exist=true, ValueIndex=0, NofDecimals=2, Type=FLOAT32.
func NewA3Parameter(name string) A3Parameter {
	return A3Parameter{
		Name:        name,
		Exist:       true,
		NofDecimals: 2,
		Type:        wire.Float32,
	}
}

// Clamp limits value to the parameter's configured min/max, the same
// behavior device-facing setpoint code in this codebase already applies
// via util.Limiter.
func (p A3Parameter) Clamp(value float64) float64 {
	return p.Limits.Clamp(value)
}

// InRange reports whether value satisfies the parameter's configured
// min/max.
func (p A3Parameter) InRange(value float64) bool {
	return p.Limits.Check(value)
}

// Display rounds value to the parameter's configured decimal precision
// for human-facing output, using the same rounding helper the rest of
// this module uses for display values.
func (p A3Parameter) Display(value float64) float64 {
	unit := 1.0
	for i := uint8(0); i < p.NofDecimals; i++ {
		unit /= 10
	}
	return mathx.Round(value, unit)
}

// ForceExist sets Exist=true on every parameter in list, replicating
// ParameterList's assignment-time override in the original client: a
// caller-supplied parameter list is always treated as fully present.
func ForceExist(list []A3Parameter) []A3Parameter {
	out := make([]A3Parameter, len(list))
	for i, p := range list {
		p.Exist = true
		out[i] = p
	}
	return out
}

// IsSubscriptionInitialized reports whether every existing parameter in
// list has a ValueIndex within the bounds of, and a matching Name in,
// values — the same bounds-and-name check the original client performs.
// Every parameter is checked against values regardless of SetPoint; use
// IsSubscriptionInitializedSplit to check set-point parameters against a
// separate output list.
func IsSubscriptionInitialized(list []A3Parameter, values wire.DataList) bool {
	for _, p := range list {
		if !p.Exist {
			continue
		}
		if p.ValueIndex < 0 || p.ValueIndex >= len(values) {
			return false
		}
		if values[p.ValueIndex].Name != p.Name {
			return false
		}
	}
	return true
}

// checkCache validates p against whichever of online/output applies: the
// bounds-and-name check IsSubscriptionInitialized applies to a single
// cache, selecting the cache by p.SetPoint the way the original client's
// IsSubscriptionInitialized picks between output_value_list_ and
// online_value_list_.
func (p A3Parameter) checkCache(online, output wire.DataList) bool {
	values := online
	if p.SetPoint {
		values = output
	}
	if p.ValueIndex < 0 || p.ValueIndex >= len(values) {
		return false
	}
	return values[p.ValueIndex].Name == p.Name
}

// IsSubscriptionInitializedSplit is IsSubscriptionInitialized for a
// client that keeps separate online_values/output_values caches: every
// existing parameter is checked against output if it is a set-point,
// against online otherwise.
func IsSubscriptionInitializedSplit(list []A3Parameter, online, output wire.DataList) bool {
	for _, p := range list {
		if !p.Exist {
			continue
		}
		if !p.checkCache(online, output) {
			return false
		}
	}
	return true
}
