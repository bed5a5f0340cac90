package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Abs returns the absolute value of a signed number.
func Abs[T constraints.Signed | constraints.Float](f T) T {
	if f < 0 {
		return -f
	}
	return f
}

// Lerp interpolates from a to b by t, with t clamped to [0, 1].
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*Clamp(t, 0, 1)
}
