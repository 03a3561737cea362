package cpu

import (
	"math"
)

const (
	DOUBLE_MANTISSA_BITS = 52
	DOUBLE_MANTISSA_MASK = uint64(1)<<DOUBLE_MANTISSA_BITS - 1
	DOUBLE_EXPONENT_MASK = 0x7ff
	DOUBLE_EXPONENT_BIAS = 1023
	DOUBLE_QUIET_BIT     = uint64(1) << 51
)

// unpackedDouble is the bit level view of a double.
type unpackedDouble struct {
	sign     bool
	biased   int64
	exponent int64 // unbiased
	mantissa uint64
}

func unpackDouble(value float64) (ud unpackedDouble) {
	bits := math.Float64bits(value)
	ud.sign = (bits >> 63) != 0
	ud.biased = int64((bits >> DOUBLE_MANTISSA_BITS) & DOUBLE_EXPONENT_MASK)
	ud.mantissa = bits & DOUBLE_MANTISSA_MASK
	ud.exponent = ud.biased - DOUBLE_EXPONENT_BIAS
	return
}

// MakeDouble assembles a double from its sign, unbiased exponent and the 52
// explicit mantissa bits.
func MakeDouble(sign bool, exponent int, mantissa uint64) (value float64, err error) {
	if mantissa > DOUBLE_MANTISSA_MASK {
		err = ErrDoubleMantissa
		return
	}

	biased := int64(exponent) + DOUBLE_EXPONENT_BIAS
	if biased < 0 || biased > DOUBLE_EXPONENT_MASK {
		err = ErrDoubleExponent
		return
	}

	var bits uint64
	if sign {
		bits = 1 << 63
	}
	bits |= uint64(biased) << DOUBLE_MANTISSA_BITS
	bits |= mantissa

	value = math.Float64frombits(bits)
	return
}

// IsIntegral returns true if value is a finite integer. Only the bit pattern
// is inspected.
func IsIntegral(value float64) bool {
	ud := unpackDouble(value)

	switch {
	case ud.biased == DOUBLE_EXPONENT_MASK:
		// NaN or infinity
		return false
	case ud.biased == 0:
		// Zero, or a subnormal below 1.0
		return ud.mantissa == 0
	case ud.exponent < 0:
		return false
	case ud.exponent >= DOUBLE_MANTISSA_BITS:
		return true
	}

	fraction := uint64(1)<<(DOUBLE_MANTISSA_BITS-ud.exponent) - 1
	return (ud.mantissa & fraction) == 0
}

// CanTruncate returns true if value is finite and its integer part fits in
// an int64.
func CanTruncate(value float64) bool {
	ud := unpackDouble(value)
	if ud.biased == DOUBLE_EXPONENT_MASK {
		return false
	}
	return ud.exponent < 62
}

// AsInteger truncates value toward zero. The caller must check CanTruncate.
func AsInteger(value float64) int64 {
	ud := unpackDouble(value)
	if ud.exponent < 0 {
		return 0
	}

	result := int64(ud.mantissa | (uint64(1) << DOUBLE_MANTISSA_BITS))
	shift := ud.exponent - DOUBLE_MANTISSA_BITS
	if shift < 0 {
		result >>= -shift
	} else {
		result <<= shift
	}

	if ud.sign {
		return -result
	}
	return result
}

// IsSignalingNaN returns true for a NaN with the quiet bit clear.
func IsSignalingNaN(value float64) bool {
	ud := unpackDouble(value)
	return ud.biased == DOUBLE_EXPONENT_MASK && ud.mantissa != 0 && (ud.mantissa&DOUBLE_QUIET_BIT) == 0
}
