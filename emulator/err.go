package emulator

import (
	"errors"

	"github.com/ezrec/fpvm/translate"
)

var f = translate.From

var (
	ErrTickLimit = errors.New(f("tick limit reached"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc       int
	Function string
	Err      error
}

func (err *ErrRuntime) Error() string {
	if len(err.Function) == 0 {
		return f("pc %d %v", err.Pc, err.Err)
	}
	return f("pc %d (%v) %v", err.Pc, err.Function, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
