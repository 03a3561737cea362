// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler_Labels(t *testing.T) {
	assert := assert.New(t)

	asm := NewAssembler(32)
	top := asm.NewLabel()
	end := asm.NewLabel()

	asm.Bind(top).
		Push(1).
		Branch(B_ALWAYS, end).
		Branch(B_ALWAYS, top).
		Bind(end).
		Op(RET)

	prog, err := asm.Link()
	assert.NoError(err)
	assert.NotNil(prog)

	// pc 1: forward by 2 to pc 3
	assert.Equal(float64(B_ALWAYS), prog.Words[2])
	assert.Equal(2.0, prog.Words[3])
	// pc 2: back by 2 to pc 0
	assert.Equal(-2.0, prog.Words[5])
	assert.Equal(float64(RET), prog.Words[6])
}

func TestAssembler_Errors(t *testing.T) {
	assert := assert.New(t)

	asm := NewAssembler(32)
	label := asm.NewLabel()
	asm.Branch(B_INEXACT, label).Op(RET)
	prog, err := asm.Link()
	assert.Nil(prog)
	assert.ErrorIs(err, ErrLabelMissing("@0"))

	asm = NewAssembler(32)
	asm.Call("missing").Op(RET)
	_, err = asm.Link()
	assert.ErrorIs(err, ErrLabelMissing("missing"))

	asm = NewAssembler(32)
	asm.Function("f").Op(RET).Function("f")
	_, err = asm.Link()
	assert.ErrorIs(err, ErrLabelDuplicate)

	asm = NewAssembler(32)
	label = asm.NewLabel()
	asm.Bind(label).Bind(label)
	assert.ErrorIs(asm.Err(), ErrLabelDuplicate)

	asm = NewAssembler(32)
	asm.Branch(B_ALWAYS, Label(5))
	assert.ErrorIs(asm.Err(), ErrLabelInvalid)

	asm = NewAssembler(32)
	asm.Emit(PUSH_CONST)
	assert.ErrorIs(asm.Err(), ErrOpcode{})

	asm = NewAssembler(2)
	asm.Push(1).Push(2)
	assert.ErrorIs(asm.Err(), ErrBufferFull)
}

func TestAssembler_Sticky(t *testing.T) {
	assert := assert.New(t)

	asm := NewAssembler(32)
	asm.Function("broken").
		Push(1).
		BranchDelta(ADD, 1).
		Push(2).
		Op(RET)

	assert.Equal(1, asm.Pc())
	assert.Equal(2, asm.Buffer().Cursor())

	var berr ErrBuild
	assert.ErrorAs(asm.Err(), &berr)
	assert.Equal("broken", berr.Function)
	assert.Equal(1, berr.Pc)
	assert.ErrorIs(berr, ErrBranchInvalid)

	prog, err := asm.Link()
	assert.Nil(prog)
	assert.Equal(berr, err)
}

func TestAssembler_Call(t *testing.T) {
	assert := assert.New(t)

	asm := NewAssembler(32)
	asm.Call("later").Op(RET)
	asm.Function("later").Push(5).Op(RET)
	asm.Function("again").Call("later").Op(RET)

	prog, err := asm.Link()
	assert.NoError(err)

	later, ok := prog.Lookup("later")
	assert.True(ok)
	assert.Equal(2, later)

	// Forward reference is patched at link time.
	assert.Equal(2.0, prog.Words[1])
	// Backward reference is resolved immediately.
	assert.Equal(float64(CALL), prog.Words[6])
	assert.Equal(2.0, prog.Words[7])

	assert.Equal([]Symbol{
		{Name: "later", Pc: 2},
		{Name: "again", Pc: 4},
	}, prog.Symbols)
}

func TestAssembler_Pc(t *testing.T) {
	assert := assert.New(t)

	asm := NewAssembler(128)
	label := asm.NewLabel()
	asm.Bind(label)

	steps := []func(){
		func() { asm.Push(1) },
		func() { asm.Op(DUP, ADD) },
		func() { asm.Branch(B_INEXACT, label) },
		func() { asm.PrintString("ok") },
		func() { asm.CallPc(0) },
		func() { asm.Op(RET) },
	}

	for _, step := range steps {
		step()
		assert.NoError(asm.Err())

		pc, err := asm.Buffer().ProgramCountAtCursor()
		assert.NoError(err)
		assert.Equal(asm.Pc(), pc)

		offset, err := asm.Buffer().ByteOffsetForProgramCount(pc)
		assert.NoError(err)
		assert.Equal(asm.Buffer().Cursor()*WORD_SIZE, offset)
	}
}

func TestAssembler_Entry(t *testing.T) {
	assert := assert.New(t)

	// Functions use pcs 0..4: CALL, RET, PUSH, POP, RET.
	build := func(entryPc int) (prog *Program, err error) {
		asm := NewAssembler(64)
		asm.ReserveEntry(entryPc).
			Function("f").
			Push(1).
			Op(POP, RET).
			Entry().
			Call("f").
			Push(7).
			Op(PRINT_FLOAT, RET)
		return asm.Link()
	}

	prog, err := build(5)
	assert.NoError(err)
	assert.NotNil(prog)

	pc, ok := prog.Lookup(ENTRY_SYMBOL)
	assert.True(ok)
	assert.Equal(5, pc)
	assert.Equal("f", prog.Debug(4).Name)
	assert.Equal(ENTRY_SYMBOL, prog.Debug(6).Name)

	prog, err = build(4)
	assert.Nil(prog)
	assert.ErrorIs(err, ErrEntryOverlap)

	prog, err = build(40)
	assert.NoError(err)
	codes, err := prog.Decode()
	assert.NoError(err)
	assert.Equal(Code{Op: CALL, Immediate: 40}, codes[0])
	assert.Equal(Code{Op: NOP}, codes[5])
	assert.Equal(Code{Op: CALL, Immediate: 2}, codes[40])
}

func TestAssembler_EntryErrors(t *testing.T) {
	assert := assert.New(t)

	asm := NewAssembler(32)
	asm.Entry()
	assert.ErrorIs(asm.Err(), ErrEntryMissing)

	asm = NewAssembler(32)
	asm.Op(NOP).ReserveEntry(10)
	assert.ErrorIs(asm.Err(), ErrEntryReserved)

	asm = NewAssembler(32)
	asm.ReserveEntry(10).Entry().Op(RET).Entry()
	assert.ErrorIs(asm.Err(), ErrEntryReserved)

	asm = NewAssembler(8)
	asm.ReserveEntry(100).Entry()
	assert.ErrorIs(asm.Err(), ErrSeekRange)
}
