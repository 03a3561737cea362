package script

import (
	"errors"

	"github.com/ezrec/fpvm/translate"
)

var f = translate.From

var (
	ErrEntryMissing = errors.New(f("script never called entry()"))
	ErrTarget       = errors.New(f("target must be a name or an integer"))
	ErrOpcodeValue  = errors.New(f("opcode must be a mnemonic or an integer"))
)

// ErrLabelUnbound names a label that was used but never bound.
type ErrLabelUnbound string

func (err ErrLabelUnbound) Error() string {
	return f("label '%v' never bound", string(err))
}
