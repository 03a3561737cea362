package routine

import (
	"github.com/ezrec/fpvm/translate"
)

var f = translate.From

// ErrRoutineMissing is returned for an unknown routine name.
type ErrRoutineMissing string

func (err ErrRoutineMissing) Error() string {
	return f("routine '%v' missing", string(err))
}
