// Package mrz locates, classifies and decodes machine readable zones of
// travel documents and verifies their ICAO 9303 check digits.
package mrz

import "fmt"

// Filler is the MRZ padding character
const Filler = '<'

var weights = [3]int{7, 3, 1}

// CharValue returns the ICAO 9303 numeric value of an MRZ character:
// digits are their own value, A-Z are 10-35 and the filler is 0.
func CharValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10, true
	case c == Filler:
		return 0, true
	}
	return 0, false
}

// CheckDigit computes the check digit of s using the repeating 7-3-1 weights.
func CheckDigit(s string) (int, error) {
	sum := 0
	for i := 0; i < len(s); i++ {
		v, ok := CharValue(s[i])
		if !ok {
			return 0, fmt.Errorf("invalid MRZ character %q at position %d", s[i], i)
		}
		sum += v * weights[i%3]
	}
	return sum % 10, nil
}

// Verify reports whether check is the correct check digit for s.
// A filler in the check position counts as 0.
func Verify(s string, check byte) bool {
	want, err := CheckDigit(s)
	if err != nil {
		return false
	}
	got, ok := checkValue(check)
	return ok && got == want
}

func checkValue(c byte) (int, bool) {
	if c == Filler {
		return 0, true
	}
	if c >= '0' && c <= '9' {
		return int(c - '0'), true
	}
	return 0, false
}
