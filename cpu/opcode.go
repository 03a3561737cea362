package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// OpCode is an instruction of the machine.
//
// The numeric value of an OpCode is its wire encoding, so the values below
// are fixed and must never be renumbered.
type OpCode int

const (
	PUSH_CONST   = OpCode(0)
	POP          = OpCode(1)
	DUP          = OpCode(2)
	DUP2         = OpCode(3)
	DUP_X1       = OpCode(4)
	SWAP         = OpCode(5)
	NOP          = OpCode(6)
	ADD          = OpCode(7)
	SUB          = OpCode(8)
	MUL          = OpCode(9)
	DIV          = OpCode(10)
	FLOOR        = OpCode(11)
	CEIL         = OpCode(12)
	TRUNC        = OpCode(13)
	ROUND        = OpCode(14)
	ABS          = OpCode(15)
	MIN          = OpCode(16)
	MAX          = OpCode(17)
	CLEAR_EXCEPT = OpCode(18)
	B_DIVBYZERO  = OpCode(19)
	B_INEXACT    = OpCode(20)
	B_INVALID    = OpCode(21)
	B_OVERFLOW   = OpCode(22)
	B_UNDERFLOW  = OpCode(23)
	B_ANY        = OpCode(24)
	B_ALWAYS     = OpCode(25)
	CALL         = OpCode(26)
	RET          = OpCode(27)
	PRINT_FLOAT  = OpCode(28)
	PRINT_CHAR   = OpCode(29)
	READ_FLOAT   = OpCode(30)
	READ_CHAR    = OpCode(31)
	LOAD         = OpCode(32)
	STORE        = OpCode(33)
)

// opInfo describes a single catalog entry.
type opInfo struct {
	name      string
	immediate bool
	branch    bool
	flag      Flags
}

// catalog is indexed by wire id. Holes are not permitted.
var catalog = [...]opInfo{
	PUSH_CONST:   {name: "PUSH_CONST", immediate: true},
	POP:          {name: "POP"},
	DUP:          {name: "DUP"},
	DUP2:         {name: "DUP2"},
	DUP_X1:       {name: "DUP_X1"},
	SWAP:         {name: "SWAP"},
	NOP:          {name: "NOP"},
	ADD:          {name: "ADD"},
	SUB:          {name: "SUB"},
	MUL:          {name: "MUL"},
	DIV:          {name: "DIV"},
	FLOOR:        {name: "FLOOR"},
	CEIL:         {name: "CEIL"},
	TRUNC:        {name: "TRUNC"},
	ROUND:        {name: "ROUND"},
	ABS:          {name: "ABS"},
	MIN:          {name: "MIN"},
	MAX:          {name: "MAX"},
	CLEAR_EXCEPT: {name: "CLEAR_EXCEPT"},
	B_DIVBYZERO:  {name: "B_DIVBYZERO", immediate: true, branch: true, flag: Flags{DivByZero: true}},
	B_INEXACT:    {name: "B_INEXACT", immediate: true, branch: true, flag: Flags{Inexact: true}},
	B_INVALID:    {name: "B_INVALID", immediate: true, branch: true, flag: Flags{Invalid: true}},
	B_OVERFLOW:   {name: "B_OVERFLOW", immediate: true, branch: true, flag: Flags{Overflow: true}},
	B_UNDERFLOW:  {name: "B_UNDERFLOW", immediate: true, branch: true, flag: Flags{Underflow: true}},
	B_ANY:        {name: "B_ANY", immediate: true, branch: true, flag: FLAGS_ALL},
	B_ALWAYS:     {name: "B_ALWAYS", immediate: true, branch: true},
	CALL:         {name: "CALL", immediate: true},
	RET:          {name: "RET"},
	PRINT_FLOAT:  {name: "PRINT_FLOAT"},
	PRINT_CHAR:   {name: "PRINT_CHAR"},
	READ_FLOAT:   {name: "READ_FLOAT"},
	READ_CHAR:    {name: "READ_CHAR"},
	LOAD:         {name: "LOAD"},
	STORE:        {name: "STORE"},
}

// opByName maps mnemonics to opcodes.
var opByName = func() map[string]OpCode {
	names := make(map[string]OpCode, len(catalog))
	for op := range OpCodes() {
		names[op.String()] = op
	}
	return names
}()

// OpCodes returns an iterator over the whole catalog, in wire id order.
func OpCodes() iter.Seq[OpCode] {
	return func(yield func(op OpCode) bool) {
		for n := range catalog {
			if !yield(OpCode(n)) {
				return
			}
		}
	}
}

// Valid returns true if the opcode is a member of the catalog.
func (op OpCode) Valid() bool {
	return op >= 0 && int(op) < len(catalog)
}

// Encode returns the wire word of the opcode.
func (op OpCode) Encode() float64 {
	return float64(op)
}

// HasImmediate returns true if the opcode is followed by an operand word.
func (op OpCode) HasImmediate() bool {
	return op.Valid() && catalog[op].immediate
}

// IsBranch returns true for the seven branch opcodes.
func (op OpCode) IsBranch() bool {
	return op.Valid() && catalog[op].branch
}

// Width returns the number of words used by an instruction with this opcode.
func (op OpCode) Width() int {
	if op.HasImmediate() {
		return 2
	}
	return 1
}

// Flag returns the exception flags tested by a conditional branch.
// B_ALWAYS and non-branch opcodes test nothing.
func (op OpCode) Flag() Flags {
	if !op.Valid() {
		return Flags{}
	}
	return catalog[op].flag
}

// String returns the mnemonic of the opcode.
func (op OpCode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("OpCode(%d)", int(op))
	}
	return catalog[op].name
}

// DecodeOpCode converts a wire word into an opcode.
// Only exact, non-negative integers naming a catalog entry are accepted.
func DecodeOpCode(word float64) (op OpCode, err error) {
	if !IsIntegral(word) || !CanTruncate(word) {
		err = ErrOpcodeDecode
		return
	}

	id := AsInteger(word)
	if id < 0 || id >= int64(len(catalog)) {
		err = ErrOpcodeDecode
		return
	}

	op = OpCode(id)
	return
}

// ParseOpCode returns the opcode for a mnemonic, case insensitive.
func ParseOpCode(name string) (op OpCode, err error) {
	op, ok := opByName[strings.ToUpper(name)]
	if !ok {
		err = ErrOpcodeName(name)
	}
	return
}
