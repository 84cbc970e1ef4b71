package dsss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalshCodes(t *testing.T) {
	codes, err := WalshCodes(4)
	require.NoError(t, err)
	assert.Equal(t, []string{"1111", "1010", "1100", "1001"}, codes)

	t.Run("Orthogonal Rows", func(t *testing.T) {
		codes, err := WalshCodes(16)
		require.NoError(t, err)
		for i := range codes {
			for j := range codes {
				dot := 0
				for k := 0; k < 16; k++ {
					dot += chipSign(codes[i][k]) * chipSign(codes[j][k])
				}
				if i == j && dot != 16 {
					t.Errorf("row %d: expected self correlation 16, got %d", i, dot)
				}
				if i != j && dot != 0 {
					t.Errorf("rows %d,%d: expected orthogonal, got %d", i, j, dot)
				}
			}
		}
	})

	t.Run("Invalid Order", func(t *testing.T) {
		for _, n := range []int{0, -4, 3, 12} {
			_, err := WalshCodes(n)
			assert.ErrorIs(t, err, ErrInvalidOrder, "order %d", n)
		}
	})
}

func TestWalshCode(t *testing.T) {
	code, err := WalshCode(8, 5)
	require.NoError(t, err)
	assert.Len(t, code, 8)

	_, err = WalshCode(8, 8)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = WalshCode(8, -1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = WalshCode(6, 0)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func chipSign(b byte) int {
	if b == BitOne {
		return 1
	}
	return -1
}
