package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeDouble(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		sign     bool
		exponent int
		mantissa uint64
		value    float64
	}){
		{false, 0, 0, 1},
		{false, -53, 0, 0x1p-53},
		{true, 1, 1 << 51, -3},
		{false, 1023, DOUBLE_MANTISSA_MASK, math.MaxFloat64},
		{false, -1022, 0, 0x1p-1022},
		{false, 1024, 0, math.Inf(1)},
	}

	for _, entry := range table {
		value, err := MakeDouble(entry.sign, entry.exponent, entry.mantissa)
		assert.NoError(err)
		assert.Equal(entry.value, value)
	}

	_, err := MakeDouble(false, 0, 1<<52)
	assert.ErrorIs(err, ErrDoubleMantissa)

	_, err = MakeDouble(false, 1025, 0)
	assert.ErrorIs(err, ErrDoubleExponent)

	_, err = MakeDouble(false, -1024, 0)
	assert.ErrorIs(err, ErrDoubleExponent)
}

func TestDouble_Integral(t *testing.T) {
	assert := assert.New(t)

	integral := []float64{0, math.Copysign(0, -1), 1, -7, 0x1p60, 1e300}
	for _, value := range integral {
		assert.True(IsIntegral(value), "%v", value)
	}

	fractional := []float64{0.5, -2.25, 5e-324, math.NaN(), math.Inf(1)}
	for _, value := range fractional {
		assert.False(IsIntegral(value), "%v", value)
	}
}

func TestDouble_Truncate(t *testing.T) {
	assert := assert.New(t)

	assert.True(CanTruncate(0x1p61))
	assert.True(CanTruncate(-0x1p61))
	assert.True(CanTruncate(0.5))
	assert.False(CanTruncate(0x1p62))
	assert.False(CanTruncate(1e300))
	assert.False(CanTruncate(math.NaN()))
	assert.False(CanTruncate(math.Inf(-1)))

	table := map[float64]int64{
		2.7:    2,
		-2.7:   -2,
		0.3:    0,
		-0.3:   0,
		1000:   1000,
		0x1p60: 1 << 60,
		5e-324: 0,
	}

	for value, expect := range table {
		assert.Equal(expect, AsInteger(value), "%v", value)
	}
}

func TestDouble_SignalingNaN(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsSignalingNaN(math.Float64frombits(0x7ff0_0000_0000_0001)))
	assert.False(IsSignalingNaN(math.Float64frombits(0x7ff8_0000_0000_0000)))
	assert.False(IsSignalingNaN(math.Inf(1)))
	assert.False(IsSignalingNaN(1))
}
