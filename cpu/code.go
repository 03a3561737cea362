package cpu

import (
	"fmt"
	"strconv"
)

// Code is a single decoded instruction.
type Code struct {
	Op        OpCode
	Immediate float64 // Only meaningful if Op.HasImmediate()
}

// MakeCode creates an instruction, checking that an immediate is supplied
// exactly when the opcode requires one.
func MakeCode(op OpCode, imms ...float64) (code Code, err error) {
	if !op.Valid() {
		err = ErrOpcodeDecode
		return
	}

	need := 0
	if op.HasImmediate() {
		need = 1
	}
	if len(imms) != need {
		err = ErrOpcodeImm
		return
	}

	code.Op = op
	if need == 1 {
		code.Immediate = imms[0]
	}

	return
}

// Width returns the number of words of the encoded instruction.
func (code Code) Width() int {
	return code.Op.Width()
}

// Words returns the wire words of the instruction.
func (code Code) Words() []float64 {
	if code.Op.HasImmediate() {
		return []float64{code.Op.Encode(), code.Immediate}
	}
	return []float64{code.Op.Encode()}
}

// String returns a human readable form of the instruction.
func (code Code) String() string {
	if !code.Op.HasImmediate() {
		return code.Op.String()
	}
	return fmt.Sprintf("%v %v", code.Op, strconv.FormatFloat(code.Immediate, 'g', -1, 64))
}
