package cpu

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

// Console is the I/O device used by the PRINT and READ opcodes.
type Console interface {
	// PrintFloat writes a value in %.17g form.
	PrintFloat(value float64) error
	// PrintChar writes a single byte.
	PrintChar(c byte) error
	// ReadFloat reads the next whitespace delimited number.
	ReadFloat() (float64, error)
	// ReadChar reads a single byte, or -1 at end of input.
	ReadChar() (float64, error)
}

// Limits sizes the machine state.
type Limits struct {
	Stack     int // Operand stack depth.
	CallStack int // Call stack depth.
	Memory    int // Addressable memory cells; zero is unbounded.
}

// DefaultLimits returns the limits of the reference interpreter.
func DefaultLimits() Limits {
	return Limits{
		Stack:     STACK_LIMIT,
		CallStack: CALL_STACK_LIMIT,
		Memory:    MEMORY_LIMIT,
	}
}

// Cpu is the execution state of the floating-point stack machine.
//
// A Cpu is driven by a single caller; the order of flag updates and branch
// tests is exactly the instruction order.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Pc      int            // Program count of the next instruction.
	Stack   Stack[float64] // Operand stack.
	Calls   Stack[int]     // Return program counts.
	Memory  Memory         // Data memory.
	Flags   Flags          // Sticky exception flags.
	Console Console        // I/O device.

	Ticks int // Instructions executed since Reset.

	codes []Code
}

// NewCpu creates a machine with the given limits.
func NewCpu(limits Limits) (cpu *Cpu) {
	cpu = &Cpu{
		Stack:  Stack[float64]{Limit: limits.Stack},
		Calls:  Stack[int]{Limit: limits.CallStack},
		Memory: Memory{Limit: limits.Memory},
	}

	return
}

// Load decodes a program into the instruction store. The whole image must
// decode; a partial program is never loaded.
func (cpu *Cpu) Load(prog *Program) (err error) {
	codes, err := prog.Decode()
	if err != nil {
		return
	}

	cpu.codes = codes
	return
}

// Codes returns the number of loaded instructions.
func (cpu *Cpu) Codes() int {
	return len(cpu.codes)
}

// Reset the execution state. The loaded program is kept.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Pc = 0
	cpu.Stack.Reset()
	cpu.Calls.Reset()
	cpu.Memory.Reset()
	cpu.Flags.Clear()
	cpu.Ticks = 0
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	var stack []string
	for _, value := range cpu.Stack.Data {
		stack = append(stack, fmt.Sprintf("%.17g", value))
	}

	text += fmt.Sprintf("% 6s: %d\n", "pc", cpu.Pc)
	text += fmt.Sprintf("% 6s: %v\n", "flags", cpu.Flags)
	text += fmt.Sprintf("% 6s: [%v]\n", "stack", strings.Join(stack, " "))
	text += fmt.Sprintf("% 6s: %d\n", "calls", cpu.Calls.Depth())
	text += fmt.Sprintf("% 6s: %d\n", "ticks", cpu.Ticks)

	return
}

// FetchCode returns the instruction at the program count.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	if cpu.codes == nil {
		err = ErrProgramMissing
		return
	}

	if cpu.Pc < 0 || cpu.Pc >= len(cpu.codes) {
		err = ErrPcRange
		return
	}

	code = cpu.codes[cpu.Pc]
	return
}

// Tick executes a single instruction. done is set when RET leaves the
// outermost frame.
func (cpu *Cpu) Tick() (done bool, err error) {
	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	return cpu.Execute(code)
}

// pop removes n operands; the last one returned was on top.
func (cpu *Cpu) pop(n int) (values []float64, err error) {
	if cpu.Stack.Depth() < n {
		err = ErrStackEmpty
		return
	}

	depth := cpu.Stack.Depth() - n
	values = append(values, cpu.Stack.Data[depth:]...)
	cpu.Stack.Data = cpu.Stack.Data[:depth]
	return
}

// push adds operands, checking the room for all of them first.
func (cpu *Cpu) push(values ...float64) (err error) {
	if !cpu.Stack.Room(len(values)) {
		err = ErrStackFull
		return
	}

	cpu.Stack.Data = append(cpu.Stack.Data, values...)
	return
}

// rewrite replaces the top n operands with the results of fn. The stack is
// left untouched on error.
func (cpu *Cpu) rewrite(n int, fn func(args []float64) []float64) (err error) {
	args, err := cpu.pop(n)
	if err != nil {
		return
	}

	err = cpu.push(fn(args)...)
	if err != nil {
		cpu.Stack.Data = append(cpu.Stack.Data, args...)
	}
	return
}

// Execute executes a single decoded instruction.
func (cpu *Cpu) Execute(code Code) (done bool, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	if cpu.Verbose {
		log.Printf("%05d: %-20v %v", cpu.Pc, code, cpu.Flags)
	}

	next_pc := cpu.Pc + 1

	var args []float64

	switch op := code.Op; op {
	case PUSH_CONST:
		err = cpu.push(code.Immediate)
	case POP:
		_, err = cpu.pop(1)
	case DUP:
		err = cpu.rewrite(1, func(args []float64) []float64 {
			return []float64{args[0], args[0]}
		})
	case DUP2:
		err = cpu.rewrite(2, func(args []float64) []float64 {
			return []float64{args[0], args[1], args[0], args[1]}
		})
	case DUP_X1:
		// b a -> a b a
		err = cpu.rewrite(2, func(args []float64) []float64 {
			return []float64{args[1], args[0], args[1]}
		})
	case SWAP:
		err = cpu.rewrite(2, func(args []float64) []float64 {
			return []float64{args[1], args[0]}
		})
	case NOP:
		// pass
	case ADD, SUB, MUL, DIV, MIN, MAX:
		err = cpu.rewrite(2, func(args []float64) []float64 {
			result, flags := fpBinary(op, args[0], args[1])
			cpu.Flags.Raise(flags)
			return []float64{result}
		})
	case FLOOR, CEIL, TRUNC, ROUND, ABS:
		err = cpu.rewrite(1, func(args []float64) []float64 {
			result, flags := fpUnary(op, args[0])
			cpu.Flags.Raise(flags)
			return []float64{result}
		})
	case CLEAR_EXCEPT:
		cpu.Flags.Clear()
	case B_DIVBYZERO, B_INEXACT, B_INVALID, B_OVERFLOW, B_UNDERFLOW, B_ANY, B_ALWAYS:
		if cpu.Flags.Test(op) {
			if !CanTruncate(code.Immediate) {
				err = ErrBranchOffset
				return
			}
			next_pc = cpu.Pc + int(AsInteger(code.Immediate))
		}
	case CALL:
		if !CanTruncate(code.Immediate) {
			err = ErrCallTarget
			return
		}
		if cpu.Calls.Full() {
			err = ErrCallStackFull
			return
		}
		cpu.Calls.Push(cpu.Pc + 1)
		next_pc = int(AsInteger(code.Immediate))
	case RET:
		ret, ok := cpu.Calls.Pop()
		if !ok {
			done = true
			cpu.Ticks++
			return
		}
		next_pc = ret
	case PRINT_FLOAT, PRINT_CHAR:
		if cpu.Console == nil {
			err = ErrConsoleMissing
			return
		}
		if args, err = cpu.pop(1); err != nil {
			return
		}
		if op == PRINT_FLOAT {
			err = cpu.Console.PrintFloat(args[0])
			break
		}
		if !CanTruncate(args[0]) {
			err = ErrCharacter
			return
		}
		err = cpu.Console.PrintChar(byte(AsInteger(args[0])))
	case READ_FLOAT, READ_CHAR:
		if cpu.Console == nil {
			err = ErrConsoleMissing
			return
		}
		if cpu.Stack.Full() {
			err = ErrStackFull
			return
		}
		var value float64
		if op == READ_FLOAT {
			value, err = cpu.Console.ReadFloat()
		} else {
			value, err = cpu.Console.ReadChar()
		}
		if err == nil {
			err = cpu.push(value)
		}
	case LOAD:
		var value float64
		if args, err = cpu.pop(1); err == nil {
			if value, err = cpu.Memory.Load(args[0]); err == nil {
				err = cpu.push(value)
			}
		}
	case STORE:
		// value address
		if args, err = cpu.pop(2); err == nil {
			err = cpu.Memory.Store(args[1], args[0])
		}
	default:
		err = ErrOpcodeDecode
	}

	if err != nil {
		return
	}

	if next_pc < 0 || next_pc >= len(cpu.codes) {
		err = ErrPcRange
		return
	}

	cpu.Pc = next_pc
	cpu.Ticks++

	return
}
