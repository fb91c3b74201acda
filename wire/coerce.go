package wire

// Numeric is the set of primitive numeric Go types a DataValue's Value may
// hold, matching the numeric DataTypes in the enumeration above.
type Numeric interface {
	~float32 | ~float64 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// As coerces dv's dynamically-typed Value to T via a numeric cast. An
// out-of-range index is the caller's concern (see Request.GetData); a
// type mismatch or a string value yields the zero value of T rather than
// panicking. Go has no template specialization, so string extraction is
// a separate function, AsString, instead of a single generic GetData[T]
// the way the original C++ IRequest::GetData<T> is written.
func As[T Numeric](dv DataValue) T {
	switch v := dv.Value.(type) {
	case float32:
		return T(v)
	case float64:
		return T(v)
	case int16:
		return T(v)
	case uint16:
		return T(v)
	case int32:
		return T(v)
	case uint32:
		return T(v)
	case int64:
		return T(v)
	case uint64:
		return T(v)
	default:
		return T(0)
	}
}

// AsString returns dv's Value as a string, or "" if it does not hold one.
func AsString(dv DataValue) string {
	if s, ok := dv.Value.(string); ok {
		return s
	}
	return ""
}
