// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"log"
	"slices"
	"strings"
)

const (
	CAPACITY = 50_000 // Default program buffer size, in words.
	ENTRY_PC = 1000   // Default reserved entry program count.

	ENTRY_SYMBOL = "entry" // Link map name of the entry sequence.
)

// Label is a branch target, bound to a program count with Bind.
type Label int

// fixup is an immediate that is patched once its target is known.
type fixup struct {
	word     int    // Word offset of the immediate.
	pc       int    // Program count of the referencing instruction.
	label    Label  // Branch target, if call is empty.
	call     string // Function name for CALL.
	function string // Function being assembled, for errors.
}

// Assembler emits instructions into a Buffer and links them into a Program.
//
// The first error is sticky: every later call is a no-op and Link reports
// it, so no program is produced from a failed build.
type Assembler struct {
	Verbose bool // If set, verbosely logs the linker actions.

	buf      *Buffer
	err      error
	pc       int    // Program count at the cursor.
	function string // Function currently being assembled.
	entryPc  int    // Reserved entry program count, or -1.
	entry    bool   // Entry sequence is being written.

	labels  []int          // Label to program count, -1 if unbound.
	symbols map[string]int // Function name to program count.
	fixups  []fixup
}

// NewAssembler creates an assembler writing to a buffer of capacity words.
func NewAssembler(capacity int) (asm *Assembler) {
	asm = &Assembler{
		buf:     NewBuffer(capacity),
		entryPc: -1,
		symbols: make(map[string]int),
	}

	return
}

// Err returns the first error encountered, if any.
func (asm *Assembler) Err() error {
	return asm.err
}

// Buffer returns the underlying program buffer.
func (asm *Assembler) Buffer() *Buffer {
	return asm.buf
}

// Pc returns the program count of the next instruction.
func (asm *Assembler) Pc() int {
	return asm.pc
}

// fail records the first error.
func (asm *Assembler) fail(err error) *Assembler {
	if asm.err != nil {
		return asm
	}

	if _, ok := err.(ErrBuild); ok {
		asm.err = err
	} else {
		asm.err = ErrBuild{Function: asm.function, Pc: asm.pc, Err: err}
	}
	return asm
}

// emit writes an instruction at the cursor.
func (asm *Assembler) emit(code Code) (word int, ok bool) {
	word = asm.buf.Cursor()
	err := asm.buf.Emit(code)
	if err != nil {
		asm.fail(err)
		return
	}

	asm.pc++
	ok = true
	return
}

// Emit writes a single instruction.
func (asm *Assembler) Emit(op OpCode, imms ...float64) *Assembler {
	if asm.err != nil {
		return asm
	}

	code, err := MakeCode(op, imms...)
	if err != nil {
		return asm.fail(fmt.Errorf("%w: %w", ErrOpcode(Code{Op: op}), err))
	}

	asm.emit(code)
	return asm
}

// Op writes a sequence of instructions that have no immediate.
func (asm *Assembler) Op(ops ...OpCode) *Assembler {
	for _, op := range ops {
		asm.Emit(op)
	}
	return asm
}

// Push writes a PUSH_CONST of value.
func (asm *Assembler) Push(value float64) *Assembler {
	return asm.Emit(PUSH_CONST, value)
}

// PrintString writes instructions that print each byte of text.
func (asm *Assembler) PrintString(text string) *Assembler {
	for n := range len(text) {
		asm.Push(float64(text[n])).Op(PRINT_CHAR)
	}
	return asm
}

// NewLabel allocates an unbound label.
func (asm *Assembler) NewLabel() Label {
	asm.labels = append(asm.labels, -1)
	return Label(len(asm.labels) - 1)
}

// Bound returns true if label has been bound.
func (asm *Assembler) Bound(label Label) bool {
	return label >= 0 && int(label) < len(asm.labels) && asm.labels[label] >= 0
}

// labelName is the name of a label in error messages.
func labelName(label Label) string {
	return fmt.Sprintf("@%d", int(label))
}

// Bind binds label to the program count of the next instruction, and patches
// branches already emitted to it.
func (asm *Assembler) Bind(label Label) *Assembler {
	if asm.err != nil {
		return asm
	}

	if label < 0 || int(label) >= len(asm.labels) {
		return asm.fail(ErrLabelInvalid)
	}
	if asm.labels[label] >= 0 {
		return asm.fail(ErrLabelDuplicate)
	}

	asm.labels[label] = asm.pc

	asm.fixups = slices.DeleteFunc(asm.fixups, func(fx fixup) bool {
		if len(fx.call) != 0 || fx.label != label {
			return false
		}
		asm.patch(fx, float64(asm.pc-fx.pc))
		return true
	})

	return asm
}

// patch writes a resolved immediate.
func (asm *Assembler) patch(fx fixup, value float64) {
	err := asm.buf.Patch(fx.word, value)
	if err != nil {
		asm.fail(ErrBuild{Function: fx.function, Pc: fx.pc, Err: err})
	}
}

// Branch writes a branch to label. The delta is measured from the branch
// instruction itself, so the taken branch lands exactly on the label.
func (asm *Assembler) Branch(op OpCode, label Label) *Assembler {
	if asm.err != nil {
		return asm
	}

	if !op.IsBranch() {
		return asm.fail(ErrBranchInvalid)
	}
	if label < 0 || int(label) >= len(asm.labels) {
		return asm.fail(ErrLabelInvalid)
	}

	site := asm.pc
	target := asm.labels[label]
	if target >= 0 {
		return asm.Emit(op, float64(target-site))
	}

	word, ok := asm.emit(Code{Op: op})
	if ok {
		asm.fixups = append(asm.fixups, fixup{
			word:     word + 1,
			pc:       site,
			label:    label,
			function: asm.function,
		})
	}

	return asm
}

// BranchDelta writes a branch with an explicit program count delta.
func (asm *Assembler) BranchDelta(op OpCode, delta int) *Assembler {
	if asm.err != nil {
		return asm
	}

	if !op.IsBranch() {
		return asm.fail(ErrBranchInvalid)
	}

	return asm.Emit(op, float64(delta))
}

// Function starts a named function at the next instruction.
func (asm *Assembler) Function(name string) *Assembler {
	if asm.err != nil {
		return asm
	}

	if len(name) == 0 {
		return asm.fail(ErrFunctionMissing)
	}
	if _, ok := asm.symbols[name]; ok {
		return asm.fail(ErrLabelDuplicate)
	}

	asm.function = name
	asm.symbols[name] = asm.pc

	if asm.Verbose {
		log.Printf("asm: linking %v at pc %d", name, asm.pc)
	}

	return asm
}

// Call writes a CALL to a named function, which may be defined later.
func (asm *Assembler) Call(name string) *Assembler {
	if asm.err != nil {
		return asm
	}

	if pc, ok := asm.symbols[name]; ok {
		return asm.CallPc(pc)
	}

	site := asm.pc
	word, ok := asm.emit(Code{Op: CALL})
	if ok {
		asm.fixups = append(asm.fixups, fixup{
			word:     word + 1,
			pc:       site,
			call:     name,
			function: asm.function,
		})
	}

	return asm
}

// CallPc writes a CALL to an absolute program count.
func (asm *Assembler) CallPc(pc int) *Assembler {
	return asm.Emit(CALL, float64(pc))
}

// ReserveEntry reserves program count pc for the entry sequence, by writing
// CALL pc and RET at the start of the buffer. Functions are assembled after
// them, and must end at or before pc.
func (asm *Assembler) ReserveEntry(pc int) *Assembler {
	if asm.err != nil {
		return asm
	}

	if asm.entryPc >= 0 || asm.buf.Cursor() != 0 {
		return asm.fail(ErrEntryReserved)
	}

	asm.entryPc = pc
	return asm.CallPc(pc).Op(RET)
}

// Entry verifies that the functions assembled so far do not reach the
// reserved entry program count, then moves the cursor there. The build fails
// on overlap, before any entry instruction is written.
func (asm *Assembler) Entry() *Assembler {
	if asm.err != nil {
		return asm
	}

	if asm.entryPc < 0 {
		return asm.fail(ErrEntryMissing)
	}
	if asm.entry {
		return asm.fail(ErrEntryReserved)
	}

	used, err := asm.buf.ProgramCountAtCursor()
	if err != nil {
		return asm.fail(err)
	}

	if asm.Verbose {
		log.Printf("asm: functions use %d program counts, entry at %d", used, asm.entryPc)
	}

	if used > asm.entryPc {
		return asm.fail(fmt.Errorf("%w: %d > %d", ErrEntryOverlap, used, asm.entryPc))
	}

	word, err := asm.buf.WordOffsetForProgramCount(asm.entryPc)
	if err != nil {
		return asm.fail(err)
	}

	err = asm.buf.Seek(word)
	if err != nil {
		return asm.fail(err)
	}

	asm.pc = asm.entryPc
	asm.entry = true
	asm.function = ""
	return asm.Function(ENTRY_SYMBOL)
}

// Link resolves the outstanding calls and returns the program. No program is
// returned if any step of the build failed.
func (asm *Assembler) Link() (prog *Program, err error) {
	for _, fx := range asm.fixups {
		if asm.err != nil {
			break
		}
		if len(fx.call) == 0 {
			asm.err = ErrBuild{Function: fx.function, Pc: fx.pc, Err: ErrLabelMissing(labelName(fx.label))}
			break
		}
		pc, ok := asm.symbols[fx.call]
		if !ok {
			asm.err = ErrBuild{Function: fx.function, Pc: fx.pc, Err: ErrLabelMissing(fx.call)}
			break
		}
		asm.patch(fx, float64(pc))
	}

	if asm.err != nil {
		err = asm.err
		return
	}
	asm.fixups = nil

	prog = &Program{
		Words: asm.buf.Words(),
	}
	for name, pc := range asm.symbols {
		prog.Symbols = append(prog.Symbols, Symbol{Name: name, Pc: pc})
	}
	slices.SortFunc(prog.Symbols, func(a, b Symbol) int {
		if a.Pc != b.Pc {
			return a.Pc - b.Pc
		}
		return strings.Compare(a.Name, b.Name)
	})

	return
}
