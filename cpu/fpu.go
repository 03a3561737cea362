package cpu

import (
	"math"
	"math/big"
	"strings"
)

// Flags are the sticky floating-point exception flags.
//
// Arithmetic only ever sets flags; CLEAR_EXCEPT is the only way to unset
// them, so several operations may accumulate flags that a single later branch
// observes.
type Flags struct {
	DivByZero bool
	Inexact   bool
	Invalid   bool
	Overflow  bool
	Underflow bool
}

// FLAGS_ALL has every exception flag set.
var FLAGS_ALL = Flags{
	DivByZero: true,
	Inexact:   true,
	Invalid:   true,
	Overflow:  true,
	Underflow: true,
}

// Any returns true if any flag is set.
func (fl Flags) Any() bool {
	return fl.DivByZero || fl.Inexact || fl.Invalid || fl.Overflow || fl.Underflow
}

// Clear unsets all flags.
func (fl *Flags) Clear() {
	*fl = Flags{}
}

// Raise sets every flag that is set in other.
func (fl *Flags) Raise(other Flags) {
	fl.DivByZero = fl.DivByZero || other.DivByZero
	fl.Inexact = fl.Inexact || other.Inexact
	fl.Invalid = fl.Invalid || other.Invalid
	fl.Overflow = fl.Overflow || other.Overflow
	fl.Underflow = fl.Underflow || other.Underflow
}

// Intersects returns true if any flag is set in both.
func (fl Flags) Intersects(other Flags) bool {
	return (fl.DivByZero && other.DivByZero) ||
		(fl.Inexact && other.Inexact) ||
		(fl.Invalid && other.Invalid) ||
		(fl.Overflow && other.Overflow) ||
		(fl.Underflow && other.Underflow)
}

// Test returns true if the branch opcode would be taken.
func (fl Flags) Test(op OpCode) bool {
	if op == B_ALWAYS {
		return true
	}
	return fl.Intersects(op.Flag())
}

// String lists the set flags.
func (fl Flags) String() string {
	var names []string
	if fl.DivByZero {
		names = append(names, "divbyzero")
	}
	if fl.Inexact {
		names = append(names, "inexact")
	}
	if fl.Invalid {
		names = append(names, "invalid")
	}
	if fl.Overflow {
		names = append(names, "overflow")
	}
	if fl.Underflow {
		names = append(names, "underflow")
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, "|")
}

const (
	exactPrec = 2 * (DOUBLE_MANTISSA_BITS + 1) // Holds the exact product of two doubles.
	minNormal = 0x1p-1022                      // Smallest positive normal double.
)

func bigOf(value float64) *big.Float {
	return new(big.Float).SetPrec(exactPrec).SetFloat64(value)
}

// exactProduct returns true if a*b is exactly representable as r.
func exactProduct(a, b, r float64) bool {
	p := new(big.Float).SetPrec(exactPrec).Mul(bigOf(a), bigOf(b))
	return p.Cmp(bigOf(r)) == 0
}

// roundedFlags derives inexact, overflow and underflow for a binary operation
// with finite operands.
func roundedFlags(r float64, inexact bool) (fl Flags) {
	if math.IsInf(r, 0) {
		fl.Overflow = true
		fl.Inexact = true
		return
	}

	fl.Inexact = inexact
	if inexact && math.Abs(r) < minNormal {
		fl.Underflow = true
	}

	return
}

// nanFlags handles NaN and infinite operands. If handled is true, the flags
// for the operation are complete.
func nanFlags(r float64, ins ...float64) (fl Flags, handled bool) {
	anyNaN := false
	for _, in := range ins {
		if IsSignalingNaN(in) {
			fl.Invalid = true
		}
		if math.IsNaN(in) {
			anyNaN = true
		}
	}

	if math.IsNaN(r) {
		if !anyNaN {
			fl.Invalid = true
		}
		handled = true
		return
	}

	for _, in := range ins {
		if math.IsInf(in, 0) {
			// Infinite arithmetic is exact.
			handled = true
		}
	}

	return
}

// twoSumExact returns true if s == a+b exactly. s must be finite.
func twoSumExact(a, b, s float64) bool {
	bb := s - a
	err := (a - (s - bb)) + (b - bb)
	return err == 0
}

func fpAdd(a, b float64) (r float64, fl Flags) {
	r = a + b
	fl, handled := nanFlags(r, a, b)
	if handled {
		return
	}
	if math.IsInf(r, 0) {
		fl.Raise(roundedFlags(r, true))
		return
	}
	fl.Raise(roundedFlags(r, !twoSumExact(a, b, r)))
	return
}

func fpSub(a, b float64) (r float64, fl Flags) {
	r = a - b
	fl, handled := nanFlags(r, a, b)
	if handled {
		return
	}
	if math.IsInf(r, 0) {
		fl.Raise(roundedFlags(r, true))
		return
	}
	fl.Raise(roundedFlags(r, !twoSumExact(a, -b, r)))
	return
}

func fpMul(a, b float64) (r float64, fl Flags) {
	r = a * b
	fl, handled := nanFlags(r, a, b)
	if handled {
		return
	}
	if math.IsInf(r, 0) {
		fl.Raise(roundedFlags(r, true))
		return
	}
	fl.Raise(roundedFlags(r, !exactProduct(a, b, r)))
	return
}

func fpDiv(a, b float64) (r float64, fl Flags) {
	r = a / b
	fl, handled := nanFlags(r, a, b)
	if handled {
		return
	}

	if b == 0 {
		// a is finite and non-zero here; 0/0 was handled as NaN.
		fl.DivByZero = true
		return
	}

	if math.IsInf(r, 0) {
		fl.Raise(roundedFlags(r, true))
		return
	}

	// r*b is exact in extended precision, so the quotient was exact iff
	// it reproduces the dividend.
	fl.Raise(roundedFlags(r, !exactProduct(r, b, a)))
	return
}

// fpMin follows C fmin: a NaN operand yields the other operand.
func fpMin(a, b float64) (r float64, fl Flags) {
	switch {
	case math.IsNaN(a):
		r = b
	case math.IsNaN(b):
		r = a
	default:
		r = math.Min(a, b)
	}
	if IsSignalingNaN(a) || IsSignalingNaN(b) {
		fl.Invalid = true
	}
	return
}

// fpMax follows C fmax: a NaN operand yields the other operand.
func fpMax(a, b float64) (r float64, fl Flags) {
	switch {
	case math.IsNaN(a):
		r = b
	case math.IsNaN(b):
		r = a
	default:
		r = math.Max(a, b)
	}
	if IsSignalingNaN(a) || IsSignalingNaN(b) {
		fl.Invalid = true
	}
	return
}

// fpUnary applies a rounding or sign operation. These never raise inexact.
func fpUnary(op OpCode, a float64) (r float64, fl Flags) {
	switch op {
	case FLOOR:
		r = math.Floor(a)
	case CEIL:
		r = math.Ceil(a)
	case TRUNC:
		r = math.Trunc(a)
	case ROUND:
		r = math.Round(a)
	case ABS:
		r = math.Abs(a)
		return
	}

	if IsSignalingNaN(a) {
		fl.Invalid = true
	}
	return
}

// fpBinary applies a two operand arithmetic opcode to a and b, in stack
// order (b was on top).
func fpBinary(op OpCode, a, b float64) (r float64, fl Flags) {
	switch op {
	case ADD:
		r, fl = fpAdd(a, b)
	case SUB:
		r, fl = fpSub(a, b)
	case MUL:
		r, fl = fpMul(a, b)
	case DIV:
		r, fl = fpDiv(a, b)
	case MIN:
		r, fl = fpMin(a, b)
	case MAX:
		r, fl = fpMax(a, b)
	}
	return
}
