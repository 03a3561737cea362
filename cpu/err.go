package cpu

import (
	"errors"

	"github.com/ezrec/fpvm/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrPcRange        = errors.New(f("pc out of range"))
	ErrStackEmpty     = errors.New(f("stack empty"))
	ErrStackFull      = errors.New(f("stack full"))
	ErrCallStackFull  = errors.New(f("call stack full"))
	ErrMemoryAddress  = errors.New(f("memory address invalid"))
	ErrCallTarget     = errors.New(f("call target invalid"))
	ErrBranchOffset   = errors.New(f("branch offset invalid"))
	ErrCharacter      = errors.New(f("character value invalid"))
	ErrConsoleMissing = errors.New(f("console missing"))
	ErrProgramMissing = errors.New(f("program missing"))

	// Instruction decode errors
	ErrOpcodeDecode = errors.New(f("decode"))
	ErrOpcodeImm    = errors.New(f("imm"))
	ErrTruncated    = errors.New(f("unexpected end of program"))
	ErrBinarySize   = errors.New(f("binary size not a multiple of 8"))

	// Double construction errors
	ErrDoubleMantissa = errors.New(f("mantissa must be 52 bits"))
	ErrDoubleExponent = errors.New(f("exponent out of range after biasing"))

	// Assembler errors
	ErrBufferFull      = errors.New(f("program buffer full"))
	ErrSeekRange       = errors.New(f("seek out of range"))
	ErrEntryOverlap    = errors.New(f("functions overlap the reserved entry"))
	ErrEntryReserved   = errors.New(f("entry already reserved"))
	ErrEntryMissing    = errors.New(f("entry not reserved"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrLabelInvalid    = errors.New(f("label invalid"))
	ErrBranchInvalid   = errors.New(f("not a branch opcode"))
	ErrFunctionMissing = errors.New(f("function name missing"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrOpcodeName string

func (err ErrOpcodeName) Error() string {
	return f("'%v' is not an opcode", string(err))
}

type ErrOpcode Code

func (eo ErrOpcode) Error() string {
	return f("bad opcode %v", Code(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrWord reports a decode failure at a word offset of a program.
type ErrWord struct {
	Offset int
	Word   float64
	Err    error
}

func (err ErrWord) Error() string {
	return f("[%d] %.17g: %v", err.Offset, err.Word, err.Err)
}

func (err ErrWord) Unwrap() error {
	return err.Err
}

// ErrBuild reports an assembler failure with the function being assembled.
type ErrBuild struct {
	Function string
	Pc       int
	Err      error
}

func (err ErrBuild) Error() string {
	if len(err.Function) == 0 {
		return f("pc %d %v", err.Pc, err.Err)
	}
	return f("%v pc %d %v", err.Function, err.Pc, err.Err)
}

func (err ErrBuild) Unwrap() error {
	return err.Err
}
