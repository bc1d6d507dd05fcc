// ABOUTME: Compact index encoder and decoder
// ABOUTME: Five-byte maximum, sign in the first byte, 6/7/7/7/8 magnitude bits
package compact

import (
	"errors"
	"fmt"
)

const (
	// MaxBytes is the longest encoding of a compact index
	MaxBytes = 5

	// MaxMagnitude is the largest absolute value that fits in MaxBytes:
	// 6 + 7 + 7 + 7 + 8 = 35 magnitude bits
	MaxMagnitude int64 = 1<<35 - 1
)

const (
	signBit      = 0x80
	firstMore    = 0x40
	firstMask    = 0x3F
	nextMore     = 0x80
	nextMask     = 0x7F
	firstBits    = 6
	nextBits     = 7
	lastByteBits = 8
)

var (
	// ErrOverflow is returned when a value's magnitude exceeds MaxMagnitude
	ErrOverflow = errors.New("compact index out of range")

	// ErrTruncated is returned when input ends before the final byte of an index
	ErrTruncated = errors.New("truncated compact index")
)

// Encode returns the compact index encoding of v
func Encode(v int64) ([]byte, error) {
	return Append(make([]byte, 0, MaxBytes), v)
}

// MustEncode is like Encode but panics on overflow. Use it for constants only.
func MustEncode(v int64) []byte {
	b, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Append appends the encoding of v to dst
func Append(dst []byte, v int64) ([]byte, error) {
	mag, neg := magnitude(v)
	if mag > uint64(MaxMagnitude) {
		return dst, fmt.Errorf("%w: %d (max magnitude %d)", ErrOverflow, v, MaxMagnitude)
	}

	b0 := byte(mag & firstMask)
	if neg {
		b0 |= signBit
	}
	if mag > firstMask {
		b0 |= firstMore
	}
	dst = append(dst, b0)
	if b0&firstMore == 0 {
		return dst, nil
	}

	mag >>= firstBits
	for i := 1; i < MaxBytes-1; i++ {
		b := byte(mag & nextMask)
		more := mag > nextMask
		if more {
			b |= nextMore
		}
		dst = append(dst, b)
		if !more {
			return dst, nil
		}
		mag >>= nextBits
	}

	// Final byte holds the remaining bits without a continuation flag
	return append(dst, byte(mag)), nil
}

// Size returns the number of bytes Encode would produce for v
func Size(v int64) (int, error) {
	mag, _ := magnitude(v)
	if mag > uint64(MaxMagnitude) {
		return 0, fmt.Errorf("%w: %d (max magnitude %d)", ErrOverflow, v, MaxMagnitude)
	}

	n := 1
	limit := uint64(1) << firstBits
	for mag >= limit && n < MaxBytes {
		n++
		limit <<= nextBits
	}
	return n, nil
}

// Decode reads one compact index from the start of b. It returns the value
// and the number of bytes consumed.
func Decode(b []byte) (int64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncated
	}

	b0 := b[0]
	mag := uint64(b0 & firstMask)
	n := 1
	more := b0&firstMore != 0
	shift := uint(firstBits)

	for more {
		if n >= len(b) {
			return 0, n, fmt.Errorf("%w: need byte %d of %d", ErrTruncated, n+1, len(b))
		}
		c := b[n]
		n++

		if n == MaxBytes {
			mag |= uint64(c) << shift
			break
		}

		mag |= uint64(c&nextMask) << shift
		shift += nextBits
		more = c&nextMore != 0
	}

	v := int64(mag)
	if b0&signBit != 0 {
		v = -v
	}
	return v, n, nil
}

func magnitude(v int64) (uint64, bool) {
	if v < 0 {
		// Two's complement negation keeps math.MinInt64 representable
		return uint64(^v) + 1, true
	}
	return uint64(v), false
}
