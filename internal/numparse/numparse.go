// Package numparse converts decimal prefixes into fixed-width integers
// without overflowing them.
package numparse

import "errors"

// ErrNoDigits is returned when the input does not start with a number.
var ErrNoDigits = errors.New("numparse: no digits")

// Signed lists the integer widths Prefix can fill.
type Signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// Prefix parses an optionally signed base 10 number at the start of b.
//
// Digits are consumed until a non-digit is reached or until one more digit
// would overflow T. n is the number of bytes consumed, so b[n:] is the
// first unparsed byte. Callers that need the whole field to be numeric
// should check that b[n] is a separator.
func Prefix[T Signed](b []byte) (v T, n int, err error) {
	neg := false
	if len(b) > 0 && (b[0] == '-' || b[0] == '+') {
		neg = b[0] == '-'
		n++
	}

	hi, lo := bounds[T]()
	start := n
	for ; n < len(b); n++ {
		c := b[n]
		if c < '0' || c > '9' {
			break
		}
		d := T(c - '0')
		if neg {
			if v < (lo+d)/10 {
				break
			}
			v = v*10 - d
		} else {
			if v > (hi-d)/10 {
				break
			}
			v = v*10 + d
		}
	}

	if n == start {
		return 0, 0, ErrNoDigits
	}
	return v, n, nil
}

func bounds[T Signed]() (hi, lo T) {
	top := T(1)
	for top<<1 > 0 {
		top <<= 1
	}
	hi = top - 1 + top
	return hi, -hi - 1
}
