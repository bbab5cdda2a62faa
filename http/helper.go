package http

import "errors"

var errInvalidNumber = errors.New("invalid number")

// atoi parses an unsigned decimal. Empty input, signs and values that do not
// fit in an int64 are rejected.
func atoi(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, errInvalidNumber
	}

	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, errInvalidNumber
		}
		d := int64(c - '0')
		if n > (1<<63-1-d)/10 {
			return 0, errInvalidNumber
		}
		n = n*10 + d
	}
	return n, nil
}

// appendInt writes the decimal form of a non-negative n to buf without
// going through strconv.
func appendInt(buf []byte, n int) []byte {
	if n == 0 {
		return append(buf, '0')
	}

	var digits [20]byte
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = '0' + byte(n%10)
		n /= 10
	}

	return append(buf, digits[i:]...)
}
