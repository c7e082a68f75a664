// Package conv provides checked integer narrowing for automaton state ids.
//
// State ids are int32 so the builder can reserve a negative sentinel. These
// helpers panic on overflow since that indicates a programming error (the
// compiler enforces a state limit far below the int32 range).
package conv

import "math"

// IntToInt32 converts an int to int32.
// Panics if n is outside the int32 range.
//
//go:inline
func IntToInt32(n int) int32 {
	if n < math.MinInt32 || n > math.MaxInt32 {
		panic("integer overflow: int value out of int32 range")
	}
	return int32(n)
}

// IntToUint32 converts an int to uint32.
// Panics if n < 0 or n > math.MaxUint32.
//
//go:inline
func IntToUint32(n int) uint32 {
	// Use uint for comparison to avoid overflow on 32-bit platforms
	// where int cannot represent math.MaxUint32
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}

// Int32ToUint32 converts a non-negative int32 to uint32.
// Panics if n < 0.
//
//go:inline
func Int32ToUint32(n int32) uint32 {
	if n < 0 {
		panic("integer overflow: negative int32 has no uint32 value")
	}
	return uint32(n)
}
