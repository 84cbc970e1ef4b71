package dsss

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	// ErrInvalidOrder is returned for Walsh orders that are not a positive power of two
	ErrInvalidOrder = errors.New("walsh order must be a positive power of two")
	ErrInvalidIndex = errors.New("walsh index out of range")
)

// WalshCodes returns the n rows of the Walsh-Hadamard matrix of order n as
// bit strings, '1' for +1 and '0' for -1. Distinct rows are orthogonal.
func WalshCodes(n int) ([]string, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidOrder, n)
	}

	codes := make([]string, n)
	row := make([]byte, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			// H[i][j] = (-1)^popcount(i&j)
			if bits.OnesCount(uint(i&j))%2 == 0 {
				row[j] = BitOne
			} else {
				row[j] = BitZero
			}
		}
		codes[i] = string(row)
	}
	return codes, nil
}

// WalshCode returns row index of the Walsh-Hadamard matrix of order n
func WalshCode(n, index int) (string, error) {
	codes, err := WalshCodes(n)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= n {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidIndex, index, n)
	}
	return codes[index], nil
}
