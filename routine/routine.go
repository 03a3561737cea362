// Package routine is a library of functions for the floating-point machine.
//
// The machine has no compare instructions. The routines here decide
// predicates by provoking an exception on purpose and testing the sticky
// flag afterwards, and leave a 1.0 or 0.0 result on the stack.
package routine

import (
	"iter"
	"math"

	"github.com/ezrec/fpvm/cpu"
	"github.com/ezrec/fpvm/internal"
)

const (
	AT_LEAST_ONE = "at_least_one" // n -> (n >= 1)
	EQUALS_ONE   = "equals_one"   // n -> (n == 1)
	IS_ZERO      = "is_zero"      // n -> (n == 0)
	NOT          = "not"          // b -> (1 - b)
)

// THRESHOLD is the floor applied to probe operands. It makes them positive
// and keeps them away from the subnormal range.
const THRESHOLD = 0.000042006942069

// Routine is a named function body.
type Routine struct {
	Name string
	Emit func(asm *cpu.Assembler) // Emits the body, including the final RET.
}

// probes compare against one by inexact or overflow results.
var probes = []Routine{
	{AT_LEAST_ONE, emitAtLeastOne},
	{EQUALS_ONE, emitEqualsOne},
}

// predicates act on booleans or exact values.
var predicates = []Routine{
	{IS_ZERO, emitIsZero},
	{NOT, emitNot},
}

func seqOf(routines []Routine) iter.Seq2[string, Routine] {
	return func(yield func(string, Routine) bool) {
		for _, r := range routines {
			if !yield(r.Name, r) {
				return
			}
		}
	}
}

// All returns an iterator over every routine, by name.
func All() iter.Seq2[string, Routine] {
	return internal.IterSeq2Concat(seqOf(probes), seqOf(predicates))
}

// Lookup returns a routine by name.
func Lookup(name string) (r Routine, ok bool) {
	for n, routine := range All() {
		if n == name {
			return routine, true
		}
	}
	return
}

// Define emits the named routine as a function of the same name.
func Define(asm *cpu.Assembler, name string) (err error) {
	r, ok := Lookup(name)
	if !ok {
		err = ErrRoutineMissing(name)
		return
	}

	asm.Function(r.Name)
	r.Emit(asm)
	return asm.Err()
}

// DefineAll emits every routine.
func DefineAll(asm *cpu.Assembler) (err error) {
	for name := range All() {
		err = Define(asm, name)
		if err != nil {
			return
		}
	}
	return
}

// BranchZero consumes the boolean on the top of the stack, and branches to
// label if it was zero. The exception flags are cleared.
func BranchZero(asm *cpu.Assembler, label cpu.Label) *cpu.Assembler {
	return asm.Push(1).
		Op(cpu.SWAP, cpu.CLEAR_EXCEPT, cpu.DIV, cpu.POP).
		Branch(cpu.B_DIVBYZERO, label)
}

// Delay emits an inline loop that counts n down to zero. It calls the
// AT_LEAST_ONE routine, which must be defined before the program is linked.
func Delay(asm *cpu.Assembler, n float64) *cpu.Assembler {
	top := asm.NewLabel()
	end := asm.NewLabel()

	asm.Push(n).
		Bind(top).
		Op(cpu.DUP).
		Call(AT_LEAST_ONE)
	BranchZero(asm, end).
		Push(-1).
		Op(cpu.ADD, cpu.NOP).
		Branch(cpu.B_ALWAYS, top).
		Bind(end).
		Op(cpu.POP)

	return asm
}

// choose leaves 1 if the branch op is taken, else 0.
func choose(asm *cpu.Assembler, op cpu.OpCode) {
	keep := asm.NewLabel()
	asm.Push(1).
		Push(0).
		Branch(op, keep).
		Op(cpu.SWAP).
		Bind(keep).
		Op(cpu.POP, cpu.RET)
}

// emitAtLeastOne adds 2^-53 to the operand. The sum is inexact only when the
// operand has an exponent of zero or more.
func emitAtLeastOne(asm *cpu.Assembler) {
	asm.Push(THRESHOLD).
		Op(cpu.MAX).
		Push(0x1p-53).
		Op(cpu.CLEAR_EXCEPT, cpu.ADD, cpu.POP)
	choose(asm, cpu.B_INEXACT)
}

// emitEqualsOne divides the largest double by n and by 1/n. Either quotient
// overflows unless n is exactly one, and the sticky overflow flag ORs them.
func emitEqualsOne(asm *cpu.Assembler) {
	other := asm.NewLabel()

	asm.Push(THRESHOLD).
		Op(cpu.MAX).
		Push(math.MaxFloat64).
		Op(cpu.SWAP, cpu.DUP2).
		Push(1).
		Op(cpu.SWAP, cpu.DIV).
		Op(cpu.CLEAR_EXCEPT).
		Op(cpu.DIV, cpu.POP).
		Op(cpu.DIV, cpu.POP).
		Branch(cpu.B_OVERFLOW, other).
		Push(1).
		Op(cpu.RET).
		Bind(other).
		Push(0).
		Op(cpu.RET)
}

// emitIsZero divides one by n; only a zero raises divide by zero.
func emitIsZero(asm *cpu.Assembler) {
	asm.Push(1).
		Op(cpu.SWAP, cpu.CLEAR_EXCEPT, cpu.DIV, cpu.POP)
	choose(asm, cpu.B_DIVBYZERO)
}

func emitNot(asm *cpu.Assembler) {
	asm.Push(1).
		Op(cpu.SWAP, cpu.SUB, cpu.RET)
}
