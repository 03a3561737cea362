package emulator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/fpvm/config"
	"github.com/ezrec/fpvm/cpu"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(config.Default().Machine)

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Equal(cpu.STACK_LIMIT, emu.Cpu.Stack.Limit)
	assert.Equal(cpu.CALL_STACK_LIMIT, emu.Cpu.Calls.Limit)
	assert.Equal(cpu.MEMORY_LIMIT, emu.Cpu.Memory.Limit)
}

// doRun builds a program with an entry function and runs it to completion.
func doRun(t *testing.T, emu *Emulator, build func(asm *cpu.Assembler), input string) (output string, err error) {
	t.Helper()

	asm := cpu.NewAssembler(256)
	asm.ReserveEntry(100)
	build(asm)
	prog, err := asm.Link()
	if err != nil {
		t.Fatalf("%v", err)
	}
	emu.Program = prog

	emu.Console.Input = strings.NewReader(input)
	out := &bytes.Buffer{}
	emu.Console.Output = out

	err = emu.Reset()
	if err != nil {
		return
	}

	err = emu.Run()
	output = out.String()
	return
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(config.Default().Machine)

	output, err := doRun(t, emu, func(asm *cpu.Assembler) {
		asm.Function("square").
			Op(cpu.DUP, cpu.MUL, cpu.RET).
			Entry().
			PrintString("n=").
			Op(cpu.READ_FLOAT).
			Call("square").
			Op(cpu.PRINT_FLOAT).
			Push('\n').
			Op(cpu.PRINT_CHAR, cpu.RET)
	}, "12\n")
	assert.NoError(err)
	assert.Equal("n=144\n", output)
	assert.Equal(cpu.DefaultLimits().Stack, emu.Cpu.Stack.Limit)

	ticks := emu.Ticks()
	assert.NoError(emu.Reset())
	assert.NoError(emu.Run())
	assert.Equal(ticks, emu.Ticks())
}

func TestEmulator_RuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(config.Default().Machine)

	_, err := doRun(t, emu, func(asm *cpu.Assembler) {
		asm.Function("broken").
			Push(1).
			Op(cpu.ADD, cpu.RET).
			Entry().
			Call("broken").
			Op(cpu.RET)
	}, "")

	var rerr *ErrRuntime
	assert.ErrorAs(err, &rerr)
	assert.Equal(3, rerr.Pc)
	assert.Equal("broken", rerr.Function)
	assert.ErrorIs(err, cpu.ErrStackEmpty)
	assert.Equal(cpu.Code{Op: cpu.ADD}, emu.Code())
	assert.Equal("broken", emu.Function())
}

func TestEmulator_TickLimit(t *testing.T) {
	assert := assert.New(t)

	cfg := config.Default().Machine
	cfg.MaxTicks = 10
	emu := NewEmulator(cfg)

	_, err := doRun(t, emu, func(asm *cpu.Assembler) {
		forever := asm.NewLabel()
		asm.Entry().
			Bind(forever).
			Branch(cpu.B_ALWAYS, forever)
	}, "")
	assert.ErrorIs(err, ErrTickLimit)
	assert.Equal(10, emu.Ticks())

	var rerr *ErrRuntime
	assert.ErrorAs(err, &rerr)
	assert.Equal(cpu.ENTRY_SYMBOL, rerr.Function)
}

func TestEmulator_BadProgram(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(config.Default().Machine)
	emu.Program = &cpu.Program{Words: []float64{0.5}}
	assert.ErrorIs(emu.Reset(), cpu.ErrOpcodeDecode)
}
