package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatePerSecond(t *testing.T) {
	tests := []struct {
		perDay uint64
		want   uint64
	}{
		{0, 0},
		{86399, 0},
		{86400, 1},
		{864000, 10},
		{86400*5 + 1, 5},
	}
	for _, tt := range tests {
		got := RatePerSecond(uint256.NewInt(tt.perDay))
		assert.Equal(t, tt.want, got.Uint64(), "perDay=%d", tt.perDay)
	}
}

func TestAccrued(t *testing.T) {
	rate := uint256.NewInt(10)

	v, err := Accrued(0, 100, rate)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), v.Uint64())

	v, err = Accrued(100, 100, rate)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	v, err = Accrued(200, 100, rate)
	require.NoError(t, err)
	assert.True(t, v.IsZero(), "clock behind deposit")

	v, err = Accrued(0, 100, nil)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	_, err = Accrued(0, 2, new(uint256.Int).SetAllOne())
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestAddChecked(t *testing.T) {
	sum := uint256.NewInt(1)
	require.NoError(t, addChecked(sum, uint256.NewInt(2)))
	assert.Equal(t, uint64(3), sum.Uint64())

	sum = new(uint256.Int).SetAllOne()
	assert.ErrorIs(t, addChecked(sum, uint256.NewInt(1)), ErrArithmeticOverflow)
}
