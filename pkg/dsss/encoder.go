package dsss

import (
	"errors"
	"fmt"
	"strings"
)

// Bit characters used in code, message and packet strings
const (
	BitOne  = '1'
	BitZero = '0'
)

var (
	// ErrInvalidBit is returned in strict mode for characters other than '0' and '1'
	ErrInvalidBit = errors.New("invalid bit character")
	// ErrEmptyCode is returned in strict mode when synthesis is requested without a code
	ErrEmptyCode = errors.New("spreading code is empty")
)

// Complement returns the bit-complement of code. Any character other than
// '1' is treated as '0' and complements to '1'.
func Complement(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for i := 0; i < len(code); i++ {
		if code[i] == BitOne {
			b.WriteByte(BitZero)
		} else {
			b.WriteByte(BitOne)
		}
	}
	return b.String()
}

// Spread builds the packet: code for every '1' message bit, codeFlip otherwise
func Spread(code, codeFlip, message string) string {
	if len(code) == 0 || len(message) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(len(message) * len(code))
	for i := 0; i < len(message); i++ {
		if message[i] == BitOne {
			b.WriteString(code)
		} else {
			b.WriteString(codeFlip)
		}
	}
	return b.String()
}

// ValidateBits checks that bits contains only '0' and '1'
func ValidateBits(bits string) error {
	for i := 0; i < len(bits); i++ {
		if bits[i] != BitOne && bits[i] != BitZero {
			return fmt.Errorf("%w '%c' at position %d", ErrInvalidBit, bits[i], i)
		}
	}
	return nil
}
