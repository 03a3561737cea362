// Package script builds programs from Starlark build scripts.
//
// A build script drives the assembler directly: every builtin emits
// instructions at the cursor, so the script is the program layout. For
// example, the following prints 7:
//
//	entry()
//	push(3)
//	push(4)
//	op(ADD, PRINT_FLOAT, RET)
package script

import (
	"fmt"
	"log"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/fpvm/config"
	"github.com/ezrec/fpvm/cpu"
	"github.com/ezrec/fpvm/routine"
)

// builder is the state of a single script execution.
type builder struct {
	asm     *cpu.Assembler
	labels  map[string]cpu.Label
	order   []string // Label names, in creation order.
	anon    int
	entered bool
}

// Build executes a build script and links the program it assembles.
// src may be a string, []byte or io.Reader, as for starlark.ExecFile.
func Build(filename string, src any, cfg config.Assembler) (prog *cpu.Program, err error) {
	def := config.Default().Assembler
	if cfg.Capacity == 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.EntryPc == 0 {
		cfg.EntryPc = def.EntryPc
	}

	bld := &builder{
		asm:    cpu.NewAssembler(cfg.Capacity),
		labels: make(map[string]cpu.Label),
	}
	bld.asm.Verbose = cfg.Verbose
	bld.asm.ReserveEntry(cfg.EntryPc)

	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			log.Printf("%v: %v", filename, msg)
		},
	}
	opts := syntax.FileOptions{}

	_, err = starlark.ExecFileOptions(&opts, thread, filename, src, bld.predeclared(cfg))
	if err != nil {
		return
	}

	if !bld.entered {
		err = ErrEntryMissing
		return
	}

	for _, name := range bld.order {
		if !bld.asm.Bound(bld.labels[name]) {
			err = ErrLabelUnbound(name)
			return
		}
	}

	return bld.asm.Link()
}

// predeclared returns the builtins and constants visible to a script.
func (bld *builder) predeclared(cfg config.Assembler) starlark.StringDict {
	opcodes := starlark.NewDict(0)
	pred := starlark.StringDict{}
	for op := range cpu.OpCodes() {
		value := starlark.MakeInt(int(op))
		opcodes.SetKey(starlark.String(op.String()), value)
		pred[op.String()] = value
	}
	opcodes.Freeze()

	var routines []starlark.Value
	for name := range routine.All() {
		routines = append(routines, starlark.String(name))
	}

	pred["OPCODES"] = opcodes
	pred["ROUTINES"] = starlark.NewList(routines)
	pred["ENTRY_PC"] = starlark.MakeInt(cfg.EntryPc)
	pred["CAPACITY"] = starlark.MakeInt(cfg.Capacity)

	builtins := map[string]func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error){
		"op":           bld.op,
		"push":         bld.push,
		"label":        bld.label,
		"bind":         bld.bind,
		"branch":       bld.branch,
		"branch_zero":  bld.branchZero,
		"function":     bld.function,
		"call":         bld.call,
		"print_string": bld.printString,
		"entry":        bld.entry,
		"pc":           bld.pc,
		"make_double":  makeDouble,
		"routine":      bld.routine,
		"delay":        bld.delay,
	}
	for name, fn := range builtins {
		pred[name] = starlark.NewBuiltin(name, fn)
	}

	return pred
}

// result reports the sticky assembler error to the script.
func (bld *builder) result() (starlark.Value, error) {
	return starlark.None, bld.asm.Err()
}

// opcodeOf converts a mnemonic or catalog id.
func opcodeOf(value starlark.Value) (op cpu.OpCode, err error) {
	switch v := value.(type) {
	case starlark.String:
		return cpu.ParseOpCode(string(v))
	case starlark.Int:
		id, ok := v.Int64()
		if !ok {
			err = cpu.ErrOpcodeDecode
			return
		}
		return cpu.DecodeOpCode(float64(id))
	}

	err = ErrOpcodeValue
	return
}

// labelOf returns the label of a name, creating it on first use.
func (bld *builder) labelOf(name string) cpu.Label {
	label, ok := bld.labels[name]
	if !ok {
		label = bld.asm.NewLabel()
		bld.labels[name] = label
		bld.order = append(bld.order, name)
	}
	return label
}

// op(*ops) emits instructions that have no immediate.
func (bld *builder) op(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) != 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", fn.Name())
	}

	for _, arg := range args {
		op, err := opcodeOf(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
		bld.asm.Op(op)
	}

	return bld.result()
}

// push(value) emits PUSH_CONST.
func (bld *builder) push(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &value); err != nil {
		return nil, err
	}

	num, ok := starlark.AsFloat(value)
	if !ok {
		return nil, fmt.Errorf("%s: got %s, want number", fn.Name(), value.Type())
	}

	bld.asm.Push(num)
	return bld.result()
}

// label(name=None) returns a label name, allocating an anonymous one if no
// name is given.
func (bld *builder) label(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name?", &name); err != nil {
		return nil, err
	}

	if len(name) == 0 {
		bld.anon++
		name = fmt.Sprintf("@%d", bld.anon)
	}

	bld.labelOf(name)
	return starlark.String(name), nil
}

// bind(name) binds a label to the next instruction.
func (bld *builder) bind(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}

	bld.asm.Bind(bld.labelOf(name))
	return bld.result()
}

// branch(op, target) branches to a label name, or by a raw integer delta.
func (bld *builder) branch(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var opValue, target starlark.Value
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "op", &opValue, "target", &target); err != nil {
		return nil, err
	}

	op, err := opcodeOf(opValue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}

	switch t := target.(type) {
	case starlark.String:
		bld.asm.Branch(op, bld.labelOf(string(t)))
	case starlark.Int:
		delta, err := starlark.AsInt32(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
		bld.asm.BranchDelta(op, delta)
	default:
		return nil, fmt.Errorf("%s: %w", fn.Name(), ErrTarget)
	}

	return bld.result()
}

// branch_zero(target) consumes a boolean and branches if it was zero.
func (bld *builder) branchZero(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "target", &name); err != nil {
		return nil, err
	}

	routine.BranchZero(bld.asm, bld.labelOf(name))
	return bld.result()
}

// function(name) starts a named function.
func (bld *builder) function(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}

	bld.asm.Function(name)
	return bld.result()
}

// call(target) calls a function by name, or an absolute program count.
func (bld *builder) call(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var target starlark.Value
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "target", &target); err != nil {
		return nil, err
	}

	switch t := target.(type) {
	case starlark.String:
		bld.asm.Call(string(t))
	case starlark.Int:
		pc, err := starlark.AsInt32(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
		bld.asm.CallPc(pc)
	default:
		return nil, fmt.Errorf("%s: %w", fn.Name(), ErrTarget)
	}

	return bld.result()
}

// print_string(text) emits code printing each byte of text.
func (bld *builder) printString(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "text", &text); err != nil {
		return nil, err
	}

	bld.asm.PrintString(text)
	return bld.result()
}

// entry() moves to the reserved entry program count.
func (bld *builder) entry(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs); err != nil {
		return nil, err
	}

	bld.asm.Entry()
	bld.entered = bld.asm.Err() == nil
	return bld.result()
}

// pc() returns the program count of the next instruction.
func (bld *builder) pc(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs); err != nil {
		return nil, err
	}

	return starlark.MakeInt(bld.asm.Pc()), nil
}

// make_double(sign, exponent, mantissa) builds a double from its fields.
func makeDouble(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var sign bool
	var exponent int
	var mantissa starlark.Int
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "sign", &sign, "exponent", &exponent, "mantissa", &mantissa); err != nil {
		return nil, err
	}

	bits, ok := mantissa.Uint64()
	if !ok {
		return nil, fmt.Errorf("%s: %w", fn.Name(), cpu.ErrDoubleMantissa)
	}

	value, err := cpu.MakeDouble(sign, exponent, bits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}

	return starlark.Float(value), nil
}

// routine(*names) defines library routines as functions; all of them if
// no name is given.
func (bld *builder) routine(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) != 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", fn.Name())
	}

	var names []string
	for _, arg := range args {
		name, ok := starlark.AsString(arg)
		if !ok {
			return nil, fmt.Errorf("%s: got %s, want string", fn.Name(), arg.Type())
		}
		names = append(names, name)
	}

	if len(names) == 0 {
		for name := range routine.All() {
			names = append(names, name)
		}
	}

	for _, name := range names {
		if err := routine.Define(bld.asm, name); err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name(), err)
		}
	}

	return starlark.None, nil
}

// delay(n) emits an inline count down loop.
func (bld *builder) delay(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &value); err != nil {
		return nil, err
	}

	n, ok := starlark.AsFloat(value)
	if !ok {
		return nil, fmt.Errorf("%s: got %s, want number", fn.Name(), value.Type())
	}

	routine.Delay(bld.asm, n)
	return bld.result()
}
